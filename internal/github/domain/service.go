package domain

import (
	"context"
)

// Service fetches repository metadata and README content from the GitHub
// REST API.
type Service interface {
	// Metadata aggregates the repository view. The core repository lookup is
	// mandatory; languages, latest release, last commit and closed-issue
	// count are best effort with documented fallbacks.
	Metadata(ctx context.Context, repoURL string) (*RepositoryMetadata, error)

	// Readme returns the decoded README text.
	Readme(ctx context.Context, repoURL string) (string, error)
}
