package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeorders/internal/app"
	"github.com/vladislavdragonenkov/storeorders/internal/version"
)

// setupLogger выставляет формат по умолчанию до чтения конфигурации.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// prepare читает конфигурацию и перенастраивает логгер под неё.
func prepare() (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := app.ConfigureLogger(cfg.Log); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func main() {
	setupLogger()

	cfg, err := prepare()
	if err != nil {
		log.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(version.Fields()).WithFields(log.Fields{
		"http_addr":    cfg.HTTP.Addr,
		"metrics_addr": cfg.Metrics.Addr,
		"storage":      cfg.Storage.Driver,
		"idempotency":  cfg.Idempotency.Backend,
		"auth":         cfg.Auth.Mode,
	}).Info("запускаем order-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("order-service остановлен")
}
