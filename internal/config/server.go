// Package config содержит конфигурацию хоста и CLI.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig конфигурация хоста. Флаги задают значения по умолчанию,
// переменные окружения их переопределяют.
type ServerConfig struct {
	RunAddr           string
	DatabaseDSN       string // строка подключения к PostgreSQL
	SQLitePath        string // путь к файлу SQLite, если PostgreSQL не задан
	MigrationsPath    string
	RedisURL          string // кэш подписок
	RedisCacheTTL     time.Duration
	SubscriptionsFile string // YAML с подписками для хранилища в памяти
	AuditFile         string // путь к файлу для зеркала аудита
	AuditURL          string // URL для зеркала аудита
	KafkaBrokers      []string
	KafkaTopic        string
	Key               string // ключ для проверки подписи запросов
	DispatchAsync     bool
	QueueSize         int
	LookupTimeout     time.Duration
	WriteTimeout      time.Duration
	ShutdownGrace     time.Duration
	AuditRetry        bool // повторять временные сбои внешних приёмников
	LogLevel          string
}

// LoadServerConfig читает конфигурацию из аргументов процесса и окружения.
func LoadServerConfig() (*ServerConfig, error) {
	return ParseServerConfig(os.Args[1:], os.Getenv)
}

// ParseServerConfig разбирает флаги args и применяет переменные окружения из getenv.
func ParseServerConfig(args []string, getenv func(string) string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	var kafkaBrokers string

	// 1. Устанавливаем значения по умолчанию
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddr, "a", "localhost:8080", "address and port to run HTTP server")
	fs.StringVar(&cfg.DatabaseDSN, "d", "", "database connection string")
	fs.StringVar(&cfg.SQLitePath, "sqlite", "", "sqlite database path")
	fs.StringVar(&cfg.MigrationsPath, "migrations", "migrations", "postgres migrations directory")
	fs.StringVar(&cfg.RedisURL, "redis", "", "redis URL for the subscription cache")
	fs.DurationVar(&cfg.RedisCacheTTL, "redis-ttl", 30*time.Second, "subscription cache TTL")
	fs.StringVar(&cfg.SubscriptionsFile, "subscriptions", "", "YAML subscription fixtures for the in-memory store")
	fs.StringVar(&cfg.AuditFile, "audit-file", "", "audit log file path")
	fs.StringVar(&cfg.AuditURL, "audit-url", "", "audit log URL")
	fs.StringVar(&kafkaBrokers, "kafka-brokers", "", "comma separated kafka brokers")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "casetrail.audit", "kafka topic for audit entries")
	fs.StringVar(&cfg.Key, "k", "", "key for request signature")
	fs.BoolVar(&cfg.DispatchAsync, "async", false, "dispatch events on per-channel workers")
	fs.IntVar(&cfg.QueueSize, "queue", 256, "per-channel queue size in async mode")
	fs.DurationVar(&cfg.LookupTimeout, "lookup-timeout", 2*time.Second, "subscription lookup timeout")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 5*time.Second, "audit write timeout")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", 10*time.Second, "time to drain pending events on shutdown")
	fs.BoolVar(&cfg.AuditRetry, "retry", true, "retry transient failures of audit mirrors")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// 2. Проверяем переменные окружения (приоритет выше флагов)
	envString(getenv, "ADDRESS", &cfg.RunAddr)
	envString(getenv, "DATABASE_DSN", &cfg.DatabaseDSN)
	envString(getenv, "SQLITE_PATH", &cfg.SQLitePath)
	envString(getenv, "MIGRATIONS_PATH", &cfg.MigrationsPath)
	envString(getenv, "REDIS_URL", &cfg.RedisURL)
	envDuration(getenv, "REDIS_CACHE_TTL", &cfg.RedisCacheTTL)
	envString(getenv, "SUBSCRIPTIONS_FILE", &cfg.SubscriptionsFile)
	envString(getenv, "AUDIT_FILE", &cfg.AuditFile)
	envString(getenv, "AUDIT_URL", &cfg.AuditURL)
	envString(getenv, "KAFKA_BROKERS", &kafkaBrokers)
	envString(getenv, "KAFKA_TOPIC", &cfg.KafkaTopic)
	envString(getenv, "KEY", &cfg.Key)
	envBool(getenv, "DISPATCH_ASYNC", &cfg.DispatchAsync)
	envInt(getenv, "DISPATCH_QUEUE_SIZE", &cfg.QueueSize)
	envDuration(getenv, "LOOKUP_TIMEOUT", &cfg.LookupTimeout)
	envDuration(getenv, "WRITE_TIMEOUT", &cfg.WriteTimeout)
	envDuration(getenv, "SHUTDOWN_GRACE", &cfg.ShutdownGrace)
	envBool(getenv, "AUDIT_RETRY", &cfg.AuditRetry)
	envString(getenv, "LOG_LEVEL", &cfg.LogLevel)

	cfg.KafkaBrokers = splitList(kafkaBrokers)
	return cfg, nil
}

func envString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

// Некорректные значения в окружении игнорируются, остаётся значение флага.
func envInt(getenv func(string) string, key string, dst *int) {
	if v := getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(getenv func(string) string, key string, dst *bool) {
	if v := getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(getenv func(string) string, key string, dst *time.Duration) {
	if v := getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
