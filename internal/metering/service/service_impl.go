package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	meteringdomain "github.com/repolens/repolens/internal/metering/domain"
	"github.com/repolens/repolens/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Keys apikeydomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	keys apikeydomain.Repository
}

func New(p Params) meteringdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("metering.service"),
		keys: p.Keys,
	}
}

func (s *Service) CheckAndConsume(ctx context.Context, secret string) (*meteringdomain.Quota, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Reject malformed secrets before touching the store.
	if !apikeydomain.ValidKeyFormat(secret) {
		return nil, apikeydomain.ErrInvalidKey
	}

	key, err := s.keys.IncrementUsage(ctx, s.db, ownerID, secret, time.Now().UTC())
	if err != nil {
		if errors.Is(err, apikeydomain.ErrNotFound) {
			return nil, apikeydomain.ErrInvalidKey
		}
		if errors.Is(err, apikeydomain.ErrQuotaExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apikeydomain.ErrStoreUnavailable, err)
	}

	return quotaOf(key), nil
}

func (s *Service) Remaining(ctx context.Context, secret string) (*meteringdomain.Quota, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !apikeydomain.ValidKeyFormat(secret) {
		return nil, apikeydomain.ErrInvalidKey
	}

	key, err := s.keys.FindByKey(ctx, s.db, ownerID, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apikeydomain.ErrStoreUnavailable, err)
	}
	if key == nil {
		return nil, apikeydomain.ErrInvalidKey
	}

	return quotaOf(key), nil
}

func ownerFromContext(ctx context.Context) (snowflake.ID, error) {
	ownerID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || ownerID == 0 {
		return 0, apikeydomain.ErrInvalidOwner
	}
	return ownerID, nil
}

func quotaOf(key *apikeydomain.APIKey) *meteringdomain.Quota {
	remaining := key.UsageLimit - key.Usage
	if remaining < 0 {
		remaining = 0
	}
	return &meteringdomain.Quota{
		Usage:      key.Usage,
		UsageLimit: key.UsageLimit,
		Remaining:  remaining,
	}
}
