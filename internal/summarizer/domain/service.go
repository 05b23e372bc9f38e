package domain

import (
	"context"

	githubdomain "github.com/repolens/repolens/internal/github/domain"
)

// Service turns repository metadata and README content into a structured
// summary.
type Service interface {
	Summarize(ctx context.Context, meta *githubdomain.RepositoryMetadata, readme string) (*SummaryResult, error)
}
