package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

const defaultKeyTTL = 24 * time.Hour

// ErrRequestInProgress — запрос с тем же ключом ещё обрабатывается.
var ErrRequestInProgress = errors.New("request with the same idempotency key is already processing")

// OutcomeObserver получает исход каждой попытки с ключом.
type OutcomeObserver interface {
	RequestOutcome(outcome string)
}

type noopOutcomeObserver struct{}

func (noopOutcomeObserver) RequestOutcome(string) {}

// Исходы Begin.
const (
	OutcomeStarted    = "started"
	OutcomeReplayed   = "replayed"
	OutcomeConflict   = "conflict"
	OutcomeInProgress = "in_progress"
)

// Guard сериализует повторы запросов с одинаковым Idempotency-Key.
type Guard struct {
	repo     domain.IdempotencyRepository
	ttl      time.Duration
	observer OutcomeObserver
	logger   *log.Entry
}

// GuardOption настраивает Guard.
type GuardOption func(*Guard)

// WithKeyTTL задаёт срок хранения ответа.
func WithKeyTTL(ttl time.Duration) GuardOption {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithOutcomeObserver подключает метрики исходов.
func WithOutcomeObserver(observer OutcomeObserver) GuardOption {
	return func(g *Guard) {
		if observer != nil {
			g.observer = observer
		}
	}
}

// WithGuardLogger задаёт логгер.
func WithGuardLogger(logger *log.Entry) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard создаёт Guard поверх хранилища ключей.
func NewGuard(repo domain.IdempotencyRepository, options ...GuardOption) *Guard {
	g := &Guard{
		repo:     repo,
		ttl:      defaultKeyTTL,
		observer: noopOutcomeObserver{},
		logger:   log.WithField("component", "idempotency-guard"),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Replay — сохранённый ответ на ранее обработанный запрос.
type Replay struct {
	HTTPStatus int
	Body       []byte
}

// Begin занимает ключ. Возвращает nil, nil, если запрос нужно выполнить,
// и сохранённый ответ, если запрос уже завершён.
// Ошибки: domain.ErrIdempotencyHashMismatch, ErrRequestInProgress или сбой хранилища.
func (g *Guard) Begin(ctx context.Context, key, requestHash string) (*Replay, error) {
	record, err := g.repo.CreateProcessing(ctx, key, requestHash, time.Now().UTC().Add(g.ttl))
	if err == nil {
		g.observer.RequestOutcome(OutcomeStarted)
		return nil, nil
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		g.observer.RequestOutcome(OutcomeConflict)
		return nil, err
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if !record.Finished() {
			g.observer.RequestOutcome(OutcomeInProgress)
			return nil, ErrRequestInProgress
		}
		g.observer.RequestOutcome(OutcomeReplayed)
		status := record.HTTPStatus
		if status == 0 {
			status = http.StatusOK
		}
		return &Replay{HTTPStatus: status, Body: record.ResponseBody}, nil
	default:
		return nil, err
	}
}

// Complete сохраняет ответ для последующих повторов.
// Ответы 4xx и 5xx сохраняются как неуспешные.
func (g *Guard) Complete(ctx context.Context, key string, httpStatus int, body []byte) {
	var err error
	if httpStatus < http.StatusBadRequest {
		err = g.repo.MarkDone(ctx, key, body, httpStatus)
	} else {
		err = g.repo.MarkFailed(ctx, key, body, httpStatus)
	}
	if err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}

// RequestHash строит отпечаток запроса из его значимых частей.
func RequestHash(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
