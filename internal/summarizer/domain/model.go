package domain

// Maintenance status values the model is allowed to return.
const (
	StatusActive     = "active"
	StatusMaintained = "maintained"
	StatusArchived   = "archived"
	StatusDeprecated = "deprecated"
)

// SummaryResult is the structured output of a repository summarization.
// Field names follow the wire schema of the chat completion response.
type SummaryResult struct {
	Summary              string   `json:"summary"`
	CoolFacts            []string `json:"cool_facts"`
	Stars                int      `json:"stars"`
	LatestVersion        *string  `json:"latest_version"`
	IsActive             bool     `json:"is_active"`
	MaintenanceStatus    string   `json:"maintenance_status"`
	ProgrammingLanguages []string `json:"programming_languages"`
	OpenIssues           int      `json:"open_issues"`
	ClosedIssues         int      `json:"closed_issues"`
	TotalIssues          int      `json:"total_issues"`
}

// ValidMaintenanceStatus reports whether s is one of the allowed values.
func ValidMaintenanceStatus(s string) bool {
	switch s {
	case StatusActive, StatusMaintained, StatusArchived, StatusDeprecated:
		return true
	}
	return false
}
