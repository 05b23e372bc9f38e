package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/repolens/repolens/internal/config"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"go.uber.org/zap"
)

const repoURL = "https://github.com/acme/widget"

func newTestService(t *testing.T, handler http.Handler, token string) githubdomain.Service {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return New(Params{
		Config: config.Config{GitHubAPIBaseURL: ts.URL, GitHubToken: token},
		Log:    zap.NewNop(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func coreRepoHandler(w http.ResponseWriter) {
	writeJSON(w, map[string]any{
		"full_name":         "acme/widget",
		"description":       "widgets as a service",
		"stargazers_count":  42,
		"forks_count":       7,
		"open_issues_count": 3,
		"language":          "Go",
		"pushed_at":         "2026-08-01T10:00:00Z",
		"updated_at":        "2026-08-02T10:00:00Z",
	})
}

func TestMetadataAggregates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		coreRepoHandler(w)
	})
	mux.HandleFunc("/repos/acme/widget/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int64{"Go": 1000, "Makefile": 10})
	})
	mux.HandleFunc("/repos/acme/widget/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"tag_name": "v1.2.3"})
	})
	mux.HandleFunc("/repos/acme/widget/commits", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"commit": map[string]any{"committer": map[string]any{"date": "2026-08-01T09:00:00Z"}}},
		})
	})
	mux.HandleFunc("/search/issues", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"total_count": 12})
	})

	svc := newTestService(t, mux, "")
	meta, err := svc.Metadata(context.Background(), repoURL)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}

	if meta.Owner != "acme" || meta.Repo != "widget" {
		t.Fatalf("unexpected owner/repo: %s/%s", meta.Owner, meta.Repo)
	}
	if meta.Stars != 42 || meta.Forks != 7 || meta.OpenIssues != 3 {
		t.Fatalf("unexpected counters: %+v", meta)
	}
	if meta.ClosedIssues != 12 {
		t.Fatalf("expected 12 closed issues, got %d", meta.ClosedIssues)
	}
	if !reflect.DeepEqual(meta.Languages, []string{"Go", "Makefile"}) {
		t.Fatalf("unexpected languages: %v", meta.Languages)
	}
	if meta.LatestVersion == nil || *meta.LatestVersion != "v1.2.3" {
		t.Fatalf("unexpected version: %v", meta.LatestVersion)
	}
	if meta.LastCommit == nil || meta.LastCommit.UTC().Hour() != 9 {
		t.Fatalf("unexpected last commit: %v", meta.LastCommit)
	}
}

func TestMetadataFallbacks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		coreRepoHandler(w)
	})
	// Everything else 404s.

	svc := newTestService(t, mux, "")
	meta, err := svc.Metadata(context.Background(), repoURL)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}

	if !reflect.DeepEqual(meta.Languages, []string{"Go"}) {
		t.Fatalf("expected primary language fallback, got %v", meta.Languages)
	}
	if meta.LatestVersion != nil {
		t.Fatalf("expected nil version, got %q", *meta.LatestVersion)
	}
	if meta.LastCommit == nil || !meta.LastCommit.Equal(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected pushed_at fallback, got %v", meta.LastCommit)
	}
	if meta.ClosedIssues != 0 {
		t.Fatalf("expected 0 closed issues, got %d", meta.ClosedIssues)
	}
}

func TestMetadataTagsFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		coreRepoHandler(w)
	})
	mux.HandleFunc("/repos/acme/widget/tags", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"name": "v0.9.0"}})
	})

	svc := newTestService(t, mux, "")
	meta, err := svc.Metadata(context.Background(), repoURL)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.LatestVersion == nil || *meta.LatestVersion != "v0.9.0" {
		t.Fatalf("expected tag fallback, got %v", meta.LatestVersion)
	}
}

func TestMetadataRepoNotFound(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler(), "")

	_, err := svc.Metadata(context.Background(), repoURL)
	if !errors.Is(err, githubdomain.ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}
}

func TestMetadataRateLimit(t *testing.T) {
	reset := time.Now().Add(4*time.Minute + 30*time.Second)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
	})

	svc := newTestService(t, handler, "")
	_, err := svc.Metadata(context.Background(), repoURL)
	if !githubdomain.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	want := "GitHub API rate limit exceeded. Try again in 5 minutes."
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestMetadataInvalidURL(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler(), "")

	if _, err := svc.Metadata(context.Background(), "https://gitlab.com/a/b"); !errors.Is(err, githubdomain.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestMetadataSendsAuthToken(t *testing.T) {
	var sawAuth bool
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer gh-token" {
			sawAuth = true
		}
		coreRepoHandler(w)
	})

	svc := newTestService(t, mux, "gh-token")
	if _, err := svc.Metadata(context.Background(), repoURL); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if !sawAuth {
		t.Fatal("expected Authorization header on the core request")
	}
}

func TestReadmeDecodesBase64(t *testing.T) {
	readme := "# Widget\n\nThe best widget."
	encoded := base64.StdEncoding.EncodeToString([]byte(readme))
	// GitHub wraps the payload in newlines.
	wrapped := encoded[:10] + "\n" + encoded[10:] + "\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/readme", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"content": wrapped, "encoding": "base64"})
	})

	svc := newTestService(t, mux, "")
	got, err := svc.Readme(context.Background(), repoURL)
	if err != nil {
		t.Fatalf("readme: %v", err)
	}
	if got != readme {
		t.Fatalf("readme = %q, want %q", got, readme)
	}
}

func TestReadmeNotFound(t *testing.T) {
	svc := newTestService(t, http.NotFoundHandler(), "")

	if _, err := svc.Readme(context.Background(), repoURL); !errors.Is(err, githubdomain.ErrReadmeNotFound) {
		t.Fatalf("expected ErrReadmeNotFound, got %v", err)
	}
}

func TestReadmeMissingContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/readme", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"encoding":"base64"}`)
	})

	svc := newTestService(t, mux, "")
	if _, err := svc.Readme(context.Background(), repoURL); !errors.Is(err, githubdomain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
