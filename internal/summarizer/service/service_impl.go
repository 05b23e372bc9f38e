package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/repolens/repolens/internal/config"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"github.com/repolens/repolens/internal/summarizer/domain"
	"github.com/repolens/repolens/internal/summarizer/llm"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const summarizeTimeout = 60 * time.Second

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Service struct {
	client *llm.Client
	log    *zap.Logger
}

func New(p Params) domain.Service {
	model := p.Config.LLMModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Service{
		client: llm.NewClient(strings.TrimRight(p.Config.LLMBaseURL, "/"), p.Config.LLMAPIKey, model),
		log:    p.Log.Named("summarizer.service"),
	}
}

func (s *Service) Summarize(ctx context.Context, meta *githubdomain.RepositoryMetadata, readme string) (*domain.SummaryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(meta, readme)},
		},
		Temperature:    0,
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, domain.ErrTimeout
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", domain.ErrInvalidResponse)
	}

	result, err := decodeResult(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func buildPrompt(meta *githubdomain.RepositoryMetadata, readme string) string {
	version := "No releases"
	if meta.LatestVersion != nil && *meta.LatestVersion != "" {
		version = *meta.LatestVersion
	}

	var b strings.Builder
	b.WriteString("Summarize this GitHub repository with the following information:\n\n")
	b.WriteString("Repository Metadata:\n")
	fmt.Fprintf(&b, "- Stars: %d\n", meta.Stars)
	fmt.Fprintf(&b, "- Latest Version: %s\n", version)
	fmt.Fprintf(&b, "- Last Updated: %s\n", meta.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Programming Languages: %s\n", strings.Join(meta.Languages, ", "))
	fmt.Fprintf(&b, "- Open Issues: %d\n", meta.OpenIssues)
	fmt.Fprintf(&b, "- Closed Issues: %d\n", meta.ClosedIssues)
	b.WriteString("\nREADME Content:\n")
	b.WriteString(readme)
	b.WriteString("\n\nAnalyze the repository and determine:\n")
	b.WriteString("1. If it's active (based on recent commits and updates)\n")
	b.WriteString("2. Maintenance status (active/maintained/archived/deprecated)\n")
	b.WriteString("3. Basic facts about the repository\n\n")
	b.WriteString("Respond with a JSON object containing all required fields: ")
	b.WriteString("summary, cool_facts, stars, latest_version, is_active, maintenance_status, ")
	b.WriteString("programming_languages, open_issues, closed_issues, total_issues.")
	return b.String()
}

func decodeResult(content string) (*domain.SummaryResult, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var result domain.SummaryResult
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	if err := validateResult(&result); err != nil {
		return nil, err
	}

	// total_issues is derived, never trusted from the model.
	result.TotalIssues = result.OpenIssues + result.ClosedIssues
	return &result, nil
}

func validateResult(result *domain.SummaryResult) error {
	if strings.TrimSpace(result.Summary) == "" {
		return fmt.Errorf("%w: missing summary", domain.ErrInvalidResponse)
	}
	if result.CoolFacts == nil {
		return fmt.Errorf("%w: missing cool_facts", domain.ErrInvalidResponse)
	}
	if result.ProgrammingLanguages == nil {
		return fmt.Errorf("%w: missing programming_languages", domain.ErrInvalidResponse)
	}
	if !domain.ValidMaintenanceStatus(result.MaintenanceStatus) {
		return fmt.Errorf("%w: maintenance_status %q", domain.ErrInvalidResponse, result.MaintenanceStatus)
	}
	return nil
}
