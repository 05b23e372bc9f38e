// Package domain contains core types for API key issuance and metering.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey stores a caller credential and its quota, scoped to an owner.
type APIKey struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OwnerID    snowflake.ID `gorm:"column:owner_id;not null;index"`
	Name       string       `gorm:"type:text;not null"`
	Key        string       `gorm:"column:key;type:text;not null;uniqueIndex"`
	UsageLimit int64        `gorm:"column:usage_limit;not null"`
	Usage      int64        `gorm:"column:usage;not null;default:0"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	LastUsedAt *time.Time   `gorm:"column:last_used_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// keyPattern is the only accepted secret shape. Malformed keys are rejected
// before any store lookup.
var keyPattern = regexp.MustCompile(`^sk_[A-Za-z0-9]{32}$`)

// ValidKeyFormat reports whether raw matches the sk_-prefixed secret format.
func ValidKeyFormat(raw string) bool {
	return keyPattern.MatchString(raw)
}

// MaskKey hides the middle of a secret for display: first 4 and last 4
// characters survive.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("•", len(key))
	}
	return key[:4] + strings.Repeat("•", len(key)-8) + key[len(key)-4:]
}
