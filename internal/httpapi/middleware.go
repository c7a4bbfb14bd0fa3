package httpapi

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
)

const (
	msgAuthRequired   = "Authentication required"
	msgAccessDenied   = "Access denied"
	msgInternalError  = "Something went wrong"
	msgRequestTimeout = "Request timed out"
)

// RequestObserver получает итог каждого запроса (метрики).
type RequestObserver interface {
	ObserveRequest(route, method string, code int, elapsed time.Duration)
}

// requireAuth пропускает только запросы с проверенной личностью.
func requireAuth(authenticator auth.Authenticator, logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(r)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) {
					logger.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Debug("authentication rejected")
				}
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// requireRole пропускает только вызывающих с одной из ролей.
func requireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.FromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}
			if !identity.HasRole(roles...) {
				writeError(w, http.StatusForbidden, msgAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog пишет одну запись на запрос и сообщает итог наблюдателю.
func accessLog(logger *log.Entry, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			if observer != nil {
				observer.ObserveRequest(route, r.Method, status, elapsed)
			}

			entry := logger.WithFields(log.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"route":       route,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": elapsed.Milliseconds(),
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request completed")
			case status >= http.StatusBadRequest:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}

// recoverer отвечает 500 в общем формате, если обработчик запаниковал.
// http.ErrAbortHandler пробрасывается дальше в net/http.
func recoverer(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithFields(log.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"panic":      rec,
					"stack":      string(debug.Stack()),
				}).Error("handler panicked")
				writeError(w, http.StatusInternalServerError, msgInternalError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// timeout ограничивает контекст запроса. Если срок истёк, а обработчик
// ничего не записал, отвечает 504 в общем формате.
func timeout(limit time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
				writeError(ww, http.StatusGatewayTimeout, msgRequestTimeout)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
