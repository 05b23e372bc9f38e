package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/repolens/repolens/internal/config"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"github.com/repolens/repolens/internal/summarizer/domain"
	"go.uber.org/zap"
)

func testMetadata() *githubdomain.RepositoryMetadata {
	version := "v2.0.0"
	return &githubdomain.RepositoryMetadata{
		Owner:         "acme",
		Repo:          "widget",
		Stars:         42,
		OpenIssues:    3,
		ClosedIssues:  12,
		Languages:     []string{"Go"},
		LatestVersion: &version,
		UpdatedAt:     time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, handler http.Handler) domain.Service {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return New(Params{
		Config: config.Config{LLMBaseURL: ts.URL, LLMAPIKey: "test", LLMModel: "gpt-4o-mini"},
		Log:    zap.NewNop(),
	})
}

func completionHandler(t *testing.T, content string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func validResultJSON() string {
	return `{
		"summary": "A widget library.",
		"cool_facts": ["used by everyone"],
		"stars": 42,
		"latest_version": "v2.0.0",
		"is_active": true,
		"maintenance_status": "active",
		"programming_languages": ["Go"],
		"open_issues": 3,
		"closed_issues": 12,
		"total_issues": 999
	}`
}

func TestSummarizeParsesStructuredOutput(t *testing.T) {
	svc := newTestService(t, completionHandler(t, validResultJSON()))

	result, err := svc.Summarize(context.Background(), testMetadata(), "# Widget")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Summary != "A widget library." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
	if result.MaintenanceStatus != domain.StatusActive {
		t.Fatalf("unexpected status: %q", result.MaintenanceStatus)
	}
	if result.TotalIssues != 15 {
		t.Fatalf("expected derived total_issues 15, got %d", result.TotalIssues)
	}
}

func TestSummarizeRejectsBadStatus(t *testing.T) {
	bad := `{
		"summary": "x",
		"cool_facts": [],
		"stars": 0,
		"latest_version": null,
		"is_active": false,
		"maintenance_status": "abandoned",
		"programming_languages": [],
		"open_issues": 0,
		"closed_issues": 0,
		"total_issues": 0
	}`
	svc := newTestService(t, completionHandler(t, bad))

	if _, err := svc.Summarize(context.Background(), testMetadata(), ""); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSummarizeRejectsMissingFields(t *testing.T) {
	svc := newTestService(t, completionHandler(t, `{"summary": ""}`))

	if _, err := svc.Summarize(context.Background(), testMetadata(), ""); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSummarizeRejectsNonJSON(t *testing.T) {
	svc := newTestService(t, completionHandler(t, "sorry, I cannot do that"))

	if _, err := svc.Summarize(context.Background(), testMetadata(), ""); !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSummarizeDeadlineMapsToTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	svc := newTestService(t, slow)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := svc.Summarize(ctx, testMetadata(), ""); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestPromptIncludesMetadata(t *testing.T) {
	var prompt string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			prompt = body.Messages[0].Content
		}
		if body.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response format, got %q", body.ResponseFormat.Type)
		}
		completionHandler(t, validResultJSON()).ServeHTTP(w, r)
	})
	svc := newTestService(t, handler)

	if _, err := svc.Summarize(context.Background(), testMetadata(), "# Widget README"); err != nil {
		t.Fatalf("summarize: %v", err)
	}

	for _, want := range []string{"Stars: 42", "Latest Version: v2.0.0", "Open Issues: 3", "Closed Issues: 12", "# Widget README"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
