package domain

import (
	"context"
	"time"
)

// TimelineRepository хранит журнал событий жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error
}

// IdempotencyJanitor удаляет просроченные ключи там, где хранилище не умеет TTL само.
type IdempotencyJanitor interface {
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
