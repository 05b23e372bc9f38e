package domain

import "errors"

var (
	ErrInvalidOwner      = errors.New("invalid_owner")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidUsageLimit = errors.New("invalid_usage_limit")
	ErrEmptyUpdate       = errors.New("empty_update")
	ErrNotFound          = errors.New("api_key_not_found")
	ErrInvalidKey        = errors.New("invalid_api_key")
	ErrQuotaExceeded     = errors.New("quota_exceeded")
	ErrStoreUnavailable  = errors.New("store_unavailable")
)
