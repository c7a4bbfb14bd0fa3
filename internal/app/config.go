package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	// EnvPrefix — префикс переменных окружения; "__" разделяет уровни вложенности.
	EnvPrefix = "STOREORDERS_"
	// EnvConfigFile указывает путь к необязательному YAML-файлу.
	EnvConfigFile = EnvPrefix + "CONFIG"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

const (
	IdempotencyBackendOff      = "off"
	IdempotencyBackendMemory   = "memory"
	IdempotencyBackendPostgres = "postgres"
	IdempotencyBackendRedis    = "redis"
)

const (
	AuthModeJWT    = "jwt"
	AuthModeHeader = "header"
)

// HTTPConfig — настройки API-сервера.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig — сервер /metrics и health-эндпоинтов.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig — уровень и формат логов.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageConfig выбирает хранилище заказов.
type StorageConfig struct {
	Driver string `koanf:"driver"`
	// Seed загружает демонстрационный справочник (только для memory).
	Seed bool `koanf:"seed"`
}

// PostgresConfig — подключение к PostgreSQL.
type PostgresConfig struct {
	DSN             string        `koanf:"dsn"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// RedisConfig — подключение к Redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// IdempotencyConfig — хранилище Idempotency-Key и его очистка.
type IdempotencyConfig struct {
	Backend          string        `koanf:"backend"`
	TTL              time.Duration `koanf:"ttl"`
	CleanupInterval  time.Duration `koanf:"cleanup_interval"`
	CleanupBatchSize int           `koanf:"cleanup_batch_size"`
}

// KafkaConfig — пересылка событий в Kafka; пустой Brokers отключает её.
type KafkaConfig struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

// EventsConfig — шина событий.
type EventsConfig struct {
	QueueSize      int           `koanf:"queue_size"`
	HandlerTimeout time.Duration `koanf:"handler_timeout"`
}

// AuthConfig — способ аутентификации вызывающих.
type AuthConfig struct {
	Mode      string        `koanf:"mode"`
	JWTSecret string        `koanf:"jwt_secret"`
	Issuer    string        `koanf:"issuer"`
	Audience  string        `koanf:"audience"`
	Leeway    time.Duration `koanf:"leeway"`
}

// OrdersConfig — правила жизненного цикла заказа.
type OrdersConfig struct {
	StrictTransitions bool `koanf:"strict_transitions"`
}

// Config описывает настройки запуска приложения.
type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Log         LogConfig         `koanf:"log"`
	Storage     StorageConfig     `koanf:"storage"`
	Postgres    PostgresConfig    `koanf:"postgres"`
	Redis       RedisConfig       `koanf:"redis"`
	Idempotency IdempotencyConfig `koanf:"idempotency"`
	Kafka       KafkaConfig       `koanf:"kafka"`
	Events      EventsConfig      `koanf:"events"`
	Auth        AuthConfig        `koanf:"auth"`
	Orders      OrdersConfig      `koanf:"orders"`
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Driver: StorageDriverMemory},
		Postgres: PostgresConfig{
			AutoMigrate:     true,
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Idempotency: IdempotencyConfig{
			Backend:          IdempotencyBackendMemory,
			TTL:              24 * time.Hour,
			CleanupInterval:  time.Minute,
			CleanupBatchSize: 500,
		},
		Kafka:  KafkaConfig{Topic: "storeorders.order.events", ClientID: "storeorders"},
		Events: EventsConfig{QueueSize: 1024, HandlerTimeout: 5 * time.Second},
		Auth:   AuthConfig{Mode: AuthModeHeader, Leeway: 30 * time.Second},
	}
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML из
// STOREORDERS_CONFIG (если задан), затем переменные окружения
// вида STOREORDERS_POSTGRES__DSN.
func LoadConfig() (Config, error) {
	return loadConfig(os.Getenv(EnvConfigFile))
}

func loadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr required"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Storage.Driver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported value %q", c.Storage.Driver))
	}

	switch c.Idempotency.Backend {
	case IdempotencyBackendOff, IdempotencyBackendMemory, IdempotencyBackendRedis:
	case IdempotencyBackendPostgres:
		if c.Storage.Driver != StorageDriverPostgres {
			errs = append(errs, errors.New("idempotency.backend postgres requires storage.driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("idempotency.backend: unsupported value %q", c.Idempotency.Backend))
	}
	if c.Idempotency.Backend == IdempotencyBackendRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr required for redis idempotency backend"))
	}

	switch c.Auth.Mode {
	case AuthModeHeader:
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret required for jwt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode: unsupported value %q", c.Auth.Mode))
	}

	if c.Storage.Seed && c.Storage.Driver != StorageDriverMemory {
		errs = append(errs, errors.New("storage.seed is supported only for memory storage"))
	}

	return errors.Join(errs...)
}

func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
