package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence contract for API keys. Every operation is
// scoped by owner; a row belonging to another owner is indistinguishable
// from a missing row.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*APIKey, error)
	FindByKey(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string) (*APIKey, error)
	List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]APIKey, error)
	UpdateFields(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (int64, error)

	// IncrementUsage performs the single conditional update that enforces
	// the quota: usage is bumped only while usage < usage_limit. It returns
	// the updated record, ErrQuotaExceeded when the key exists but has no
	// quota left, or ErrNotFound when no row matches owner+key.
	IncrementUsage(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, key string, now time.Time) (*APIKey, error)
}
