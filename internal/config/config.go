package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
	Storage   StorageConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace time.Duration
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
	// TxMaxRetries and TxMaxRetryDelay bound re-runs of transactions that hit
	// serialization failures, deadlocks or dropped connections.
	TxMaxRetries    uint64
	TxMaxRetryDelay time.Duration
}

type KafkaConfig struct {
	Brokers []string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

// Backend names the order storage implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

type StorageConfig struct {
	Backend Backend
	// IdempotencyTTL is how long a stored create response is replayed. Zero keeps it forever.
	IdempotencyTTL time.Duration
}

const (
	defaultHTTPPort        = 8080
	defaultShutdownGrace   = 15 * time.Second
	defaultMigrationsPath  = "migrations"
	defaultAutoMigrate     = true
	defaultTxMaxRetries    = 3
	defaultTxMaxRetryDelay = 10 * time.Second
	defaultServiceName     = "orderdesk-api"
	defaultServiceVersion  = "0.1.0"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultOTelSampleRate  = 1.0
	defaultBackend         = BackendPostgres
	defaultIdempotencyTTL  = 24 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	storageCfg, err := loadStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		Kafka:     loadKafkaConfig(),
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
		Storage:   storageCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 65535 {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT %q", value)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = time.Duration(parsed) * time.Second
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	maxRetries := uint64(defaultTxMaxRetries)
	if value, ok := os.LookupEnv("DB_TX_MAX_RETRIES"); ok {
		parsed, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid DB_TX_MAX_RETRIES: %w", err)
		}
		maxRetries = parsed
	}

	maxDelay, err := getDurationEnv("DB_TX_MAX_RETRY_DELAY", defaultTxMaxRetryDelay)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		URL:             databaseURL,
		AutoMigrate:     getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath:  getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
		TxMaxRetries:    maxRetries,
		TxMaxRetryDelay: maxDelay,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok && value != "" {
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	return KafkaConfig{
		Brokers: brokers,
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      strings.ToLower(getEnvOrDefault("LOG_LEVEL", defaultLogLevel)),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func loadStorageConfig() (StorageConfig, error) {
	backend := Backend(strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", string(defaultBackend))))
	switch backend {
	case BackendPostgres, BackendMemory:
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND %q: want %s or %s", backend, BackendPostgres, BackendMemory)
	}

	ttl, err := getDurationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL)
	if err != nil {
		return StorageConfig{}, err
	}
	if ttl < 0 {
		return StorageConfig{}, fmt.Errorf("invalid IDEMPOTENCY_TTL %s: must not be negative", ttl)
	}

	return StorageConfig{
		Backend:        backend,
		IdempotencyTTL: ttl,
	}, nil
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "orderdesk")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s", "1h30m").
func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
