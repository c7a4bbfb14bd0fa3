package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
	"github.com/vladislavdragonenkov/storeorders/internal/domain"
	"github.com/vladislavdragonenkov/storeorders/internal/service/idempotency"
)

// Заголовки идемпотентности.
const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

const maxIdempotencyKeyLength = 255

const (
	msgIdempotencyKeyTooLong  = "Idempotency key is too long"
	msgIdempotencyMismatch    = "Idempotency key reused with different request"
	msgIdempotencyInProgress  = "Request with the same idempotency key is being processed"
	msgIdempotencyUnavailable = "Something went wrong while checking idempotency key"
)

// IdempotencyGuard — часть idempotency.Guard, нужная middleware.
type IdempotencyGuard interface {
	Begin(ctx context.Context, key, requestHash string) (*idempotency.Replay, error)
	Complete(ctx context.Context, key string, httpStatus int, body []byte)
}

// idempotent воспроизводит сохранённый ответ для повторного Idempotency-Key.
// Ключ действует в пределах одного пользователя. Без заголовка запрос проходит как есть.
func idempotent(guard IdempotencyGuard, logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				writeError(w, http.StatusBadRequest, msgIdempotencyKeyTooLong)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
			if err != nil {
				writeError(w, http.StatusBadRequest, msgInvalidBody)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			identity, _ := auth.FromContext(r.Context())
			scopedKey := identity.UserID + ":" + key
			hash := idempotency.RequestHash(identity.UserID, r.Method, r.URL.Path, string(body))

			replay, err := guard.Begin(r.Context(), scopedKey, hash)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrIdempotencyHashMismatch):
				writeError(w, http.StatusConflict, msgIdempotencyMismatch)
				return
			case errors.Is(err, idempotency.ErrRequestInProgress):
				writeError(w, http.StatusConflict, msgIdempotencyInProgress)
				return
			default:
				logger.WithError(err).WithField("idempotency_key", key).Error("idempotency check failed")
				writeError(w, http.StatusInternalServerError, msgIdempotencyUnavailable)
				return
			}

			if replay != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(HeaderIdempotencyReplayed, "true")
				w.WriteHeader(replay.HTTPStatus)
				_, _ = w.Write(replay.Body)
				return
			}

			var captured bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)

			completeCtx := context.WithoutCancel(r.Context())
			completed := false
			// Ключ не должен остаться в processing после паники: фиксируем 500,
			// тот же ответ, что отдаст recoverer.
			defer func() {
				if completed {
					return
				}
				rec := recover()
				guard.Complete(completeCtx, scopedKey, http.StatusInternalServerError, errorBody(msgInternalError))
				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			guard.Complete(completeCtx, scopedKey, status, captured.Bytes())
			completed = true
		})
	}
}
