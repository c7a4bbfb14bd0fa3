package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
	"github.com/vladislavdragonenkov/storeorders/internal/events"
	"github.com/vladislavdragonenkov/storeorders/internal/health"
	"github.com/vladislavdragonenkov/storeorders/internal/httpapi"
	"github.com/vladislavdragonenkov/storeorders/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storeorders/internal/metrics"
	"github.com/vladislavdragonenkov/storeorders/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storeorders/internal/service/orders"
	"github.com/vladislavdragonenkov/storeorders/internal/version"
)

const busDrainTimeout = 5 * time.Second

// Run поднимает API, сервер метрик и фоновые обработчики и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger.WithField("layer", "storage"))
	if err != nil {
		return err
	}
	defer deps.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	orderMetrics := metrics.NewOrderMetrics(nil)
	httpMetrics := metrics.NewHTTPMetrics(nil)
	idempotencyMetrics := metrics.NewIdempotencyMetrics(nil)

	bus := events.NewBus(
		events.WithLogger(logger.WithField("layer", "events")),
		events.WithObserver(orderMetrics),
		events.WithQueueSize(cfg.Events.QueueSize),
		events.WithHandlerTimeout(cfg.Events.HandlerTimeout),
	)
	bus.Subscribe("log", events.NewLogListener(logger.WithField("layer", "events")))

	kafkaProducer, _ := initKafkaProducer(cfg.Kafka, logger.WithField("layer", "kafka"))
	if kafkaProducer != nil {
		bus.Subscribe("kafka", kafka.NewForwarder(kafkaProducer, cfg.Kafka.Topic))
	}

	service := orders.NewService(deps.Orders, deps.Catalog, deps.Index, bus, serviceOptions(cfg, deps, orderMetrics, logger)...)

	var guard httpapi.IdempotencyGuard
	if deps.Idempotency != nil {
		guard = idempotency.NewGuard(deps.Idempotency,
			idempotency.WithKeyTTL(cfg.Idempotency.TTL),
			idempotency.WithOutcomeObserver(idempotencyMetrics),
			idempotency.WithGuardLogger(logger.WithField("layer", "idempotency")),
		)
	}

	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return err
	}

	apiSrv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Config{
			Service:        service,
			Authenticator:  authenticator,
			Idempotency:    guard,
			Observer:       httpMetrics,
			Logger:         logger.WithField("layer", "http"),
			RequestTimeout: cfg.HTTP.RequestTimeout,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	healthHandler := health.NewHandler(version.GetVersion())
	deps.RegisterHealthChecks(healthHandler)
	metricsSrv := startMetricsServer(runCtx, cfg.Metrics.Addr, logger, healthHandler)

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(busCtx)
	}()

	if deps.Janitor != nil {
		worker := idempotency.NewCleanupWorker(deps.Janitor,
			idempotency.WithLogger(logger.WithField("layer", "idempotency-cleanup")),
			idempotency.WithObserver(idempotencyMetrics),
			idempotency.WithInterval(cfg.Idempotency.CleanupInterval),
			idempotency.WithBatchSize(cfg.Idempotency.CleanupBatchSize),
		)
		go worker.Run(runCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTP.Addr)
		errCh <- apiSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		runErr = ctx.Err()
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	}

	shutdownHTTP(apiSrv, cfg.HTTP.ShutdownTimeout, logger)
	cancel()

	// Новых публикаций больше не будет: дожидаемся доставки очереди.
	bus.Close()
	select {
	case <-busDone:
	case <-time.After(busDrainTimeout):
		logger.Warn("event bus drain timed out")
		stopBus()
		<-busDone
	}

	closeKafka(kafkaProducer, logger)
	shutdownHTTP(metricsSrv, cfg.HTTP.ShutdownTimeout, logger)

	return runErr
}

func serviceOptions(cfg Config, deps *Dependencies, observer orders.Observer, logger *log.Entry) []orders.Option {
	opts := []orders.Option{
		orders.WithLogger(logger.WithField("layer", "orders")),
		orders.WithTimeline(deps.Timeline),
		orders.WithObserver(observer),
	}
	if cfg.Orders.StrictTransitions {
		opts = append(opts, orders.WithTransitionPolicy(orders.StrictTransitions))
	}
	return opts
}

func newAuthenticator(cfg AuthConfig) (auth.Authenticator, error) {
	switch cfg.Mode {
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			return nil, errors.New("jwt secret is required for jwt auth mode")
		}
		return auth.NewJWTAuthenticator(cfg.JWTSecret,
			auth.WithIssuer(cfg.Issuer),
			auth.WithAudience(cfg.Audience),
			auth.WithLeeway(cfg.Leeway),
		), nil
	case "", AuthModeHeader:
		return auth.NewHeaderAuthenticator(), nil
	default:
		return nil, errors.New("unsupported auth mode " + cfg.Mode)
	}
}

// startMetricsServer запускает /metrics и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	healthHandler.Routes(r)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 5*time.Second, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
