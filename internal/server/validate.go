package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
)

const apiKeyHeader = "x-api-key"

type ValidateAPIKeyResponse struct {
	Valid      bool  `json:"valid"`
	Usage      int64 `json:"usage"`
	UsageLimit int64 `json:"usageLimit"`
	Remaining  int64 `json:"remaining"`
}

// ValidateAPIKey checks a key without consuming quota.
func (s *Server) ValidateAPIKey(c *gin.Context) {
	secret, err := apiKeyFromHeader(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	quota, err := s.meteringSvc.Remaining(c.Request.Context(), secret)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ValidateAPIKeyResponse{
		Valid:      true,
		Usage:      quota.Usage,
		UsageLimit: quota.UsageLimit,
		Remaining:  quota.Remaining,
	})
}

func apiKeyFromHeader(c *gin.Context) (string, error) {
	secret := strings.TrimSpace(c.GetHeader(apiKeyHeader))
	if secret == "" {
		return "", newValidationError(apiKeyHeader, "required", "x-api-key header is required")
	}
	if !apikeydomain.ValidKeyFormat(secret) {
		return "", newValidationError(apiKeyHeader, "malformed", "x-api-key header is malformed")
	}
	return secret, nil
}
