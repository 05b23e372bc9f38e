package domain

import (
	"time"
)

// RepositoryMetadata is the aggregated view of a repository used to build
// the summarization prompt.
type RepositoryMetadata struct {
	Owner        string     `json:"owner"`
	Repo         string     `json:"repo"`
	FullName     string     `json:"fullName"`
	Description  string     `json:"description"`
	Stars        int        `json:"stars"`
	Forks        int        `json:"forks"`
	OpenIssues   int        `json:"openIssues"`
	ClosedIssues int        `json:"closedIssues"`
	Languages    []string   `json:"languages"`
	// LatestVersion is nil when the repository has neither releases nor
	// tags. LastCommit is nil when the commit listing was unavailable.
	LatestVersion *string    `json:"latestVersion"`
	LastCommit    *time.Time `json:"lastCommit"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
