package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	githubdomain "github.com/repolens/repolens/internal/github/domain"
	"golang.org/x/sync/errgroup"
)

type SummarizeRequest struct {
	GitHubURL string `json:"githubUrl"`
}

// SummarizeRepository runs the full pipeline: validate the URL and key,
// check quota before any outbound call, fetch metadata and README in
// parallel, summarize, then consume one unit of quota.
func (s *Server) SummarizeRepository(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.GitHubURL) == "" {
		AbortWithError(c, newValidationError("githubUrl", "required", "githubUrl is required"))
		return
	}

	repoURL, err := githubdomain.NormalizeRepoURL(req.GitHubURL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	secret := strings.TrimSpace(c.GetHeader(apiKeyHeader))

	// Advisory read only. The authoritative limit check is the conditional
	// increment after summarization, which a racing request can still lose.
	quota, err := s.meteringSvc.Remaining(c.Request.Context(), secret)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if quota.Remaining == 0 {
		AbortWithError(c, apikeydomain.ErrQuotaExceeded)
		return
	}

	var (
		meta   *githubdomain.RepositoryMetadata
		readme string
	)
	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		meta, err = s.githubSvc.Metadata(gctx, repoURL)
		return err
	})
	g.Go(func() error {
		var err error
		readme, err = s.githubSvc.Readme(gctx, repoURL)
		return err
	})
	if err := g.Wait(); err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.summarizerSvc.Summarize(c.Request.Context(), meta, readme)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if _, err := s.meteringSvc.CheckAndConsume(c.Request.Context(), secret); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
