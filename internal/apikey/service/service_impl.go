package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	"github.com/repolens/repolens/internal/usercontext"
	"github.com/repolens/repolens/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  apikeydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  apikeydomain.Repository
	genID *snowflake.Node
}

func New(p Params) apikeydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context) ([]apikeydomain.Response, error) {
	ownerID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, s.db, ownerID)
	if err != nil {
		return nil, storeErr(err)
	}

	resp := make([]apikeydomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req apikeydomain.CreateRequest) (*apikeydomain.SecretResponse, error) {
	ownerID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apikeydomain.ErrInvalidName
	}
	// Limit 0 is allowed and means the key can never be consumed.
	if req.UsageLimit < 0 {
		return nil, apikeydomain.ErrInvalidUsageLimit
	}

	now := time.Now().UTC()
	key := &apikeydomain.APIKey{
		ID:         s.genID.Generate(),
		OwnerID:    ownerID,
		Name:       name,
		UsageLimit: req.UsageLimit,
		Usage:      0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The unique index on key is the authoritative collision guard; a
	// duplicate is vanishingly unlikely, so one regeneration is enough.
	for attempt := 0; attempt < 2; attempt++ {
		secret, err := generateSecret()
		if err != nil {
			return nil, err
		}
		key.Key = secret

		insertErr := s.repo.Insert(ctx, s.db, key)
		if insertErr == nil {
			return &apikeydomain.SecretResponse{
				ID:         key.ID.String(),
				Name:       key.Name,
				Key:        key.Key,
				Usage:      key.Usage,
				UsageLimit: key.UsageLimit,
				CreatedAt:  key.CreatedAt,
			}, nil
		}
		if !db.IsDuplicateKeyErr(insertErr) {
			return nil, storeErr(insertErr)
		}
		s.log.Warn("api key collision, regenerating", zap.String("key_id", key.ID.String()))
	}

	return nil, fmt.Errorf("%w: could not generate unique key", apikeydomain.ErrStoreUnavailable)
}

func (s *Service) Get(ctx context.Context, id string) (*apikeydomain.Response, error) {
	ownerID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	keyID, err := parseID(id)
	if err != nil {
		return nil, apikeydomain.ErrNotFound
	}

	key, err := s.repo.FindByID(ctx, s.db, ownerID, keyID)
	if err != nil {
		return nil, storeErr(err)
	}
	if key == nil {
		return nil, apikeydomain.ErrNotFound
	}

	resp := toResponse(key)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req apikeydomain.UpdateRequest) (*apikeydomain.Response, error) {
	ownerID, err := s.ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if req.Name == nil && req.UsageLimit == nil {
		return nil, apikeydomain.ErrEmptyUpdate
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apikeydomain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 0 {
			return nil, apikeydomain.ErrInvalidUsageLimit
		}
		fields["usage_limit"] = *req.UsageLimit
	}

	keyID, err := parseID(id)
	if err != nil {
		return nil, apikeydomain.ErrNotFound
	}

	affected, err := s.repo.UpdateFields(ctx, s.db, ownerID, keyID, fields)
	if err != nil {
		return nil, storeErr(err)
	}
	if affected == 0 {
		return nil, apikeydomain.ErrNotFound
	}

	key, err := s.repo.FindByID(ctx, s.db, ownerID, keyID)
	if err != nil {
		return nil, storeErr(err)
	}
	if key == nil {
		return nil, apikeydomain.ErrNotFound
	}

	resp := toResponse(key)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ownerID, err := s.ownerFromContext(ctx)
	if err != nil {
		return err
	}

	keyID, err := parseID(id)
	if err != nil {
		return apikeydomain.ErrNotFound
	}

	affected, err := s.repo.Delete(ctx, s.db, ownerID, keyID)
	if err != nil {
		return storeErr(err)
	}
	if affected == 0 {
		return apikeydomain.ErrNotFound
	}
	return nil
}

func (s *Service) ownerFromContext(ctx context.Context) (snowflake.ID, error) {
	ownerID, ok := usercontext.UserIDFromContext(ctx)
	if !ok || ownerID == 0 {
		return 0, apikeydomain.ErrInvalidOwner
	}
	return ownerID, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

func toResponse(key *apikeydomain.APIKey) apikeydomain.Response {
	return apikeydomain.Response{
		ID:         key.ID.String(),
		Name:       key.Name,
		Key:        apikeydomain.MaskKey(key.Key),
		Usage:      key.Usage,
		UsageLimit: key.UsageLimit,
		CreatedAt:  key.CreatedAt,
		LastUsedAt: key.LastUsedAt,
	}
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apikeydomain.ErrNotFound) || errors.Is(err, apikeydomain.ErrQuotaExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", apikeydomain.ErrStoreUnavailable, err)
}
