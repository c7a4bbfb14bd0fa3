package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
)

const defaultRequestTimeout = 30 * time.Second

// Config — зависимости роутера.
type Config struct {
	Service       OrderService
	Authenticator auth.Authenticator
	// Idempotency включает Idempotency-Key для POST /orders; nil отключает.
	Idempotency    IdempotencyGuard
	Observer       RequestObserver
	Logger         *log.Entry
	RequestTimeout time.Duration
}

// NewRouter собирает роутер API заказов.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	handlers := NewOrderHandlers(cfg.Service, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger, cfg.Observer))
	r.Use(recoverer(logger))
	r.Use(timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(requireAuth(cfg.Authenticator, logger))

		r.With(requireRole(auth.RoleCustomer), idempotent(cfg.Idempotency, logger)).Post("/", handlers.placeOrder)
		r.Post("/get", handlers.getOrder)
		r.With(requireRole(auth.RoleCustomer)).Get("/mine", handlers.listMine)
		r.With(requireRole(auth.RoleAdmin)).Get("/admin", handlers.listAll)
		r.With(requireRole(auth.RoleAdmin)).Put("/status", handlers.changeStatus)
		r.With(requireRole(auth.RoleAdmin)).Post("/timeline", handlers.timeline)
	})

	return r
}
