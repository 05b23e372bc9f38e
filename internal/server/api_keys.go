package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
)

type CreateAPIKeyRequest struct {
	Name       string `json:"name"`
	UsageLimit int64  `json:"usageLimit"`
}

type UpdateAPIKeyRequest struct {
	Name       *string `json:"name"`
	UsageLimit *int64  `json:"usageLimit"`
}

func (s *Server) ListAPIKeys(c *gin.Context) {
	keys, err := s.apiKeySvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, keys)
}

// CreateAPIKey returns the plaintext secret. This is the only place it is
// ever rendered; every later read shows the masked form.
func (s *Server) CreateAPIKey(c *gin.Context) {
	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.apiKeySvc.Create(c.Request.Context(), apikeydomain.CreateRequest{
		Name:       req.Name,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetAPIKey(c *gin.Context) {
	key, err := s.apiKeySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, key)
}

func (s *Server) UpdateAPIKey(c *gin.Context) {
	var req UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key, err := s.apiKeySvc.Update(c.Request.Context(), c.Param("id"), apikeydomain.UpdateRequest{
		Name:       req.Name,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, key)
}

func (s *Server) DeleteAPIKey(c *gin.Context) {
	if err := s.apiKeySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
