package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/repolens/repolens/internal/config"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL = "https://api.github.com"
	callTimeout    = 30 * time.Second
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Service struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zap.Logger
}

func New(p Params) githubdomain.Service {
	base := strings.TrimRight(p.Config.GitHubAPIBaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Service{
		baseURL: base,
		token:   p.Config.GitHubToken,
		client:  &http.Client{},
		log:     p.Log.Named("github.service"),
	}
}

type repoPayload struct {
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Language        string    `json:"language"`
	PushedAt        time.Time `json:"pushed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type releasePayload struct {
	TagName string `json:"tag_name"`
}

type tagPayload struct {
	Name string `json:"name"`
}

type commitPayload struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

type searchPayload struct {
	TotalCount int `json:"total_count"`
}

type readmePayload struct {
	Content  *string `json:"content"`
	Encoding string  `json:"encoding"`
}

func (s *Service) Metadata(ctx context.Context, repoURL string) (*githubdomain.RepositoryMetadata, error) {
	normalized, err := githubdomain.NormalizeRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	owner, repo, err := githubdomain.SplitRepoURL(normalized)
	if err != nil {
		return nil, err
	}

	meta := &githubdomain.RepositoryMetadata{Owner: owner, Repo: repo}
	repoPath := fmt.Sprintf("/repos/%s/%s", owner, repo)

	var core repoPayload
	g, gctx := errgroup.WithContext(ctx)

	// The core lookup is the only mandatory call; the rest degrade to
	// fallbacks so a flaky secondary endpoint never fails the request.
	g.Go(func() error {
		if err := s.getJSON(gctx, repoPath, &core); err != nil {
			if errors.Is(err, errNotFound) {
				return githubdomain.ErrRepoNotFound
			}
			return err
		}
		return nil
	})

	g.Go(func() error {
		var langs map[string]int64
		if err := s.getJSON(gctx, repoPath+"/languages", &langs); err != nil {
			s.log.Debug("languages fetch failed", zap.Error(err))
			return nil
		}
		meta.Languages = sortedLanguages(langs)
		return nil
	})

	g.Go(func() error {
		var release releasePayload
		err := s.getJSON(gctx, repoPath+"/releases/latest", &release)
		if err == nil && release.TagName != "" {
			meta.LatestVersion = &release.TagName
			return nil
		}
		var tags []tagPayload
		if err := s.getJSON(gctx, repoPath+"/tags?per_page=1", &tags); err == nil && len(tags) > 0 {
			meta.LatestVersion = &tags[0].Name
		}
		return nil
	})

	g.Go(func() error {
		var commits []commitPayload
		if err := s.getJSON(gctx, repoPath+"/commits?per_page=1", &commits); err != nil {
			s.log.Debug("commits fetch failed", zap.Error(err))
			return nil
		}
		if len(commits) > 0 && !commits[0].Commit.Committer.Date.IsZero() {
			date := commits[0].Commit.Committer.Date
			meta.LastCommit = &date
		}
		return nil
	})

	g.Go(func() error {
		query := url.QueryEscape(fmt.Sprintf("repo:%s/%s type:issue state:closed", owner, repo))
		var result searchPayload
		if err := s.getJSON(gctx, "/search/issues?per_page=1&q="+query, &result); err != nil {
			s.log.Debug("closed issue search failed", zap.Error(err))
			return nil
		}
		meta.ClosedIssues = result.TotalCount
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta.FullName = core.FullName
	meta.Description = core.Description
	meta.Stars = core.StargazersCount
	meta.Forks = core.ForksCount
	meta.OpenIssues = core.OpenIssuesCount
	meta.UpdatedAt = core.UpdatedAt
	if meta.LastCommit == nil && !core.PushedAt.IsZero() {
		pushed := core.PushedAt
		meta.LastCommit = &pushed
	}
	if len(meta.Languages) == 0 && core.Language != "" {
		meta.Languages = []string{core.Language}
	}
	return meta, nil
}

func (s *Service) Readme(ctx context.Context, repoURL string) (string, error) {
	normalized, err := githubdomain.NormalizeRepoURL(repoURL)
	if err != nil {
		return "", err
	}
	owner, repo, err := githubdomain.SplitRepoURL(normalized)
	if err != nil {
		return "", err
	}

	var payload readmePayload
	if err := s.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &payload); err != nil {
		if errors.Is(err, errNotFound) {
			return "", githubdomain.ErrReadmeNotFound
		}
		return "", err
	}
	if payload.Content == nil {
		return "", fmt.Errorf("%w: readme payload has no content", githubdomain.ErrUpstream)
	}

	// GitHub wraps base64 content in newlines.
	raw := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, *payload.Content)

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decode readme: %v", githubdomain.ErrUpstream, err)
	}
	return string(decoded), nil
}

var errNotFound = errors.New("github: not found")

func (s *Service) getJSON(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", githubdomain.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: request timed out", githubdomain.ErrUpstream)
		}
		return fmt.Errorf("%w: %v", githubdomain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return &githubdomain.RateLimitError{ResetAt: rateLimitReset(resp.Header)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", githubdomain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", githubdomain.ErrUpstream, err)
	}
	return nil
}

func rateLimitReset(h http.Header) time.Time {
	raw := h.Get("X-RateLimit-Reset")
	if raw == "" {
		return time.Time{}
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(epoch, 0)
}

func sortedLanguages(langs map[string]int64) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
