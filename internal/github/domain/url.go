package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var repoURLPattern = regexp.MustCompile(`^https://github\.com/[\w.-]+/[\w.-]+$`)

// NormalizeRepoURL strips query, fragment and trailing slashes from raw and
// validates the result as a https://github.com/{owner}/{repo} URL.
func NormalizeRepoURL(raw string) (string, error) {
	url := strings.TrimSpace(raw)
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	url = strings.TrimRight(url, "/")

	if !repoURLPattern.MatchString(url) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return url, nil
}

// SplitRepoURL returns the owner and repository segments of a normalized
// repository URL.
func SplitRepoURL(normalized string) (owner, repo string, err error) {
	path := strings.TrimPrefix(normalized, "https://github.com/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, normalized)
	}
	return parts[0], parts[1], nil
}
