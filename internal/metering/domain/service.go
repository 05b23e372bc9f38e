package domain

import (
	"context"
)

// Quota is the usage position of a key after a metering call.
type Quota struct {
	Usage      int64 `json:"usage"`
	UsageLimit int64 `json:"usageLimit"`
	Remaining  int64 `json:"remaining"`
}

// Service meters API key consumption for the authenticated owner.
type Service interface {
	// CheckAndConsume burns one unit of quota. The check and the increment
	// are a single store operation, so concurrent callers see exactly
	// usage_limit successes in total.
	CheckAndConsume(ctx context.Context, secret string) (*Quota, error)

	// Remaining reports the current position without consuming anything.
	Remaining(ctx context.Context, secret string) (*Quota, error)
}
