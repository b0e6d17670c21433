package repository

import (
	"context"
	"time"
)

// CacheRepository хранит JSON-снимки рейтинга с TTL.
// Отсутствующий ключ возвращает apperrors.ErrNotFound.
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}
