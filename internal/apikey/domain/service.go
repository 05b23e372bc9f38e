package domain

import (
	"context"
	"time"
)

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Name       string
	UsageLimit int64
}

// UpdateRequest carries optional fields; nil means "leave unchanged".
type UpdateRequest struct {
	Name       *string
	UsageLimit *int64
}

// Response is the client-facing key record. Key is masked.
type Response struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	Usage      int64      `json:"usage"`
	UsageLimit int64      `json:"usageLimit"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// SecretResponse is returned once, at creation, with the full plaintext key.
type SecretResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	Usage      int64     `json:"usage"`
	UsageLimit int64     `json:"usageLimit"`
	CreatedAt  time.Time `json:"createdAt"`
}
