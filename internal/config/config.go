package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Bank       BankConfig
	Cache      CacheConfig
	Migrations MigrationsConfig
	Tracing    TracingConfig
	LogLevel   string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the payment store. Driver is one of "postgres",
// "sqlite" or "memory".
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig backs the result cache. An empty Addr selects the in-process cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// BankConfig describes the acquiring bank simulator.
type BankConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

// TracingConfig controls span export. An empty OTLPEndpoint keeps spans
// in-process; ConsoleExporter writes them to stdout as well.
type TracingConfig struct {
	ServiceName     string
	Enabled         bool
	OTLPEndpoint    string
	ConsoleExporter bool
}

type MigrationsConfig struct {
	Dir         string
	AutoMigrate bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8080"),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "payment_user"),
			Password:     getEnv("DB_PASSWORD", "payment_pass"),
			Database:     getEnv("DB_NAME", "payment_gateway"),
			SQLitePath:   getEnv("SQLITE_PATH", "file:payments.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC_PAYMENTS", "payments.processed"),
			Enabled: getEnvBool("KAFKA_ENABLED", false),
		},
		Bank: BankConfig{
			BaseURL:        strings.TrimSuffix(getEnv("BANK_BASE_URL", "http://localhost:8080"), "/"),
			RequestTimeout: getEnvDuration("BANK_REQUEST_TIMEOUT", 10*time.Second),
			MaxAttempts:    getEnvInt("BANK_MAX_ATTEMPTS", 5),
			BaseDelay:      getEnvDuration("BANK_RETRY_BASE_DELAY", 2*time.Second),
		},
		Cache: CacheConfig{
			TTL: getEnvDuration("PAYMENT_CACHE_TTL", 10*time.Minute),
		},
		Migrations: MigrationsConfig{
			Dir:         getEnv("MIGRATIONS_DIR", "./migrations"),
			AutoMigrate: getEnvBool("AUTO_MIGRATE", true),
		},
		Tracing: TracingConfig{
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "payment-gateway"),
			Enabled:         getEnvBool("TRACING_ENABLED", true),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ConsoleExporter: getEnvBool("TRACING_CONSOLE", false),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}
}

// PostgresDSN builds a lib/pq keyword DSN.
func (c DatabaseConfig) PostgresDSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.Username +
		" password=" + c.Password + " dbname=" + c.Database + " sslmode=disable"
}

// PostgresURL builds a postgres:// URL for pgdriver and golang-migrate.
func (c DatabaseConfig) PostgresURL() string {
	return "postgres://" + c.Username + ":" + c.Password + "@" + c.Host + ":" + c.Port +
		"/" + c.Database + "?sslmode=disable"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
