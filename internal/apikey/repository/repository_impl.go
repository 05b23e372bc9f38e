package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/repolens/repolens/internal/apikey/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() apikeydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, key *apikeydomain.APIKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).Where("owner_id = ? AND id = ?", ownerID, id).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *repo) FindByKey(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, rawKey string) (*apikeydomain.APIKey, error) {
	var key apikeydomain.APIKey
	err := db.WithContext(ctx).Where("owner_id = ? AND key = ?", ownerID, rawKey).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]apikeydomain.APIKey, error) {
	var keys []apikeydomain.APIKey
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID, fields map[string]any) (int64, error) {
	tx := db.WithContext(ctx).
		Model(&apikeydomain.APIKey{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(fields)
	return tx.RowsAffected, tx.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, ownerID, id snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Delete(&apikeydomain.APIKey{})
	return tx.RowsAffected, tx.Error
}

// IncrementUsage is the quota enforcement point. The limit check and the
// increment happen in one statement so concurrent callers can never push
// usage past usage_limit.
func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, rawKey string, now time.Time) (*apikeydomain.APIKey, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE api_keys
		 SET usage = usage + 1, last_used_at = ?, updated_at = ?
		 WHERE owner_id = ? AND key = ? AND usage < usage_limit`,
		now,
		now,
		ownerID,
		rawKey,
	)
	if tx.Error != nil {
		return nil, tx.Error
	}

	if tx.RowsAffected == 0 {
		existing, err := r.FindByKey(ctx, db, ownerID, rawKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apikeydomain.ErrNotFound
		}
		return nil, apikeydomain.ErrQuotaExceeded
	}

	updated, err := r.FindByKey(ctx, db, ownerID, rawKey)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apikeydomain.ErrNotFound
	}
	return updated, nil
}
