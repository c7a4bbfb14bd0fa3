// Package redisstore хранит ключи идемпотентности в Redis.
// Срок жизни записи задаётся TTL ключа, поэтому janitor не нужен.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

const (
	keyPrefix       = "storeorders:idemp:"
	defaultTTL      = 24 * time.Hour
	minRemainingTTL = time.Second
)

type storedRecord struct {
	Key          string                   `json:"key"`
	RequestHash  string                   `json:"request_hash"`
	ResponseBody []byte                   `json:"response_body,omitempty"`
	HTTPStatus   int                      `json:"http_status,omitempty"`
	Status       domain.IdempotencyStatus `json:"status"`
	TTLAt        time.Time                `json:"ttl_at"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// IdempotencyRepository — реализация domain.IdempotencyRepository поверх Redis.
type IdempotencyRepository struct {
	rdb redis.UniversalClient
}

// NewIdempotencyRepository создаёт репозиторий поверх готового клиента.
func NewIdempotencyRepository(rdb redis.UniversalClient) *IdempotencyRepository {
	return &IdempotencyRepository{rdb: rdb}
}

// Ping проверяет доступность Redis; используется readiness-проверкой.
func (r *IdempotencyRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *IdempotencyRepository) CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	key = strings.TrimSpace(key)
	requestHash = strings.TrimSpace(requestHash)

	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	now := time.Now().UTC()
	if ttlAt.IsZero() {
		ttlAt = now.Add(defaultTTL)
	}

	record := storedRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}

	ok, err := r.rdb.SetNX(ctx, keyPrefix+key, payload, ttlFor(ttlAt, now)).Result()
	if err != nil {
		return domain.IdempotencyRecord{}, domain.PersistenceError("create idempotency record", err)
	}
	if !ok {
		existing, getErr := r.Get(ctx, key)
		if getErr != nil {
			return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyAlreadyExists
		}
		if existing.RequestHash != requestHash {
			return existing, domain.ErrIdempotencyHashMismatch
		}
		return existing, domain.ErrIdempotencyKeyAlreadyExists
	}

	return record.toDomain(), nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (domain.IdempotencyRecord, error) {
	record, err := r.load(ctx, key)
	if err != nil {
		return domain.IdempotencyRecord{}, err
	}
	return record.toDomain(), nil
}

func (r *IdempotencyRepository) MarkDone(ctx context.Context, key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(ctx, key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (r *IdempotencyRepository) MarkFailed(ctx context.Context, key string, responseBody []byte, httpStatus int) error {
	return r.markStatus(ctx, key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

func (r *IdempotencyRepository) markStatus(ctx context.Context, key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	record, err := r.load(ctx, key)
	if err != nil {
		return err
	}

	record.Status = status
	record.ResponseBody = append([]byte(nil), responseBody...)
	record.HTTPStatus = httpStatus
	record.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// XX + KEEPTTL: запись обновляется только если ещё жива, срок жизни не продлевается.
	err = r.rdb.SetArgs(ctx, keyPrefix+record.Key, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return domain.PersistenceError("mark idempotency key status", err)
	}
	return nil
}

func (r *IdempotencyRepository) load(ctx context.Context, key string) (storedRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return storedRecord{}, domain.ErrIdempotencyKeyRequired
	}

	raw, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return storedRecord{}, domain.ErrIdempotencyKeyNotFound
	}
	if err != nil {
		return storedRecord{}, domain.PersistenceError("get idempotency record", err)
	}

	var record storedRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return storedRecord{}, domain.PersistenceError("decode idempotency record", err)
	}
	return record, nil
}

func (s storedRecord) toDomain() domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		Key:          s.Key,
		RequestHash:  s.RequestHash,
		ResponseBody: append([]byte(nil), s.ResponseBody...),
		HTTPStatus:   s.HTTPStatus,
		Status:       s.Status,
		TTLAt:        s.TTLAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// ttlFor переводит абсолютный срок в TTL ключа; уже истёкший срок даёт минимальный TTL.
func ttlFor(ttlAt, now time.Time) time.Duration {
	ttl := ttlAt.Sub(now)
	if ttl < minRemainingTTL {
		return minRemainingTTL
	}
	return ttl
}

var _ domain.IdempotencyRepository = (*IdempotencyRepository)(nil)
