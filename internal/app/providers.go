// Package app собирает хост из компонентов через fx.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/caselog"
	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/dispatch"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/metrics"
	"github.com/Mihklz/casetrail/internal/registry"
	"github.com/Mihklz/casetrail/internal/repository"
	"github.com/Mihklz/casetrail/internal/retry"
	"github.com/Mihklz/casetrail/internal/server"
	"github.com/Mihklz/casetrail/internal/subscription"
)

// Module граф зависимостей хоста. Конфигурацию поставляет вызывающий:
// fx.Provide(config.LoadServerConfig) в main, fx.Supply в тестах.
var Module = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideMetricsRegistry,
		ProvideMetrics,
		ProvideRegistry,
		ProvideDatabase,
		ProvideSubscriptionStore,
		ProvideAuditStore,
		ProvideMatcher,
		ProvideRecorder,
		ProvideCaseLog,
		ProvideDispatcher,
		ProvideServer,
	),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),
	fx.Invoke(RegisterServerHooks),
)

// ProvideLogger инициализирует глобальный логгер и отдаёт его в граф
func ProvideLogger(cfg *config.ServerConfig) (*zap.Logger, error) {
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, err
	}
	return logger.Log, nil
}

// ProvideMetricsRegistry отдельный реестр prometheus на каждый экземпляр хоста
func ProvideMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics предоставляет метрики хоста
func ProvideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

// ProvideRegistry регистрирует каталог, после чего реестр запечатан
func ProvideRegistry() (*registry.Registry, error) {
	reg := registry.New()
	if err := catalog.Register(reg); err != nil {
		return nil, fmt.Errorf("register catalog: %w", err)
	}
	return reg, nil
}

// ProvideDatabase выбирает базу: PostgreSQL, SQLite или работа без базы (nil)
func ProvideDatabase(lc fx.Lifecycle, cfg *config.ServerConfig) (repository.Database, error) {
	ctx := context.Background()

	var db repository.Database
	switch {
	case cfg.DatabaseDSN != "":
		pg, err := repository.NewPostgresDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(pg.GetConnection(), cfg.MigrationsPath); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Log.Info("Using PostgreSQL storage")
		db = pg
	case cfg.SQLitePath != "":
		lite, err := repository.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("Using SQLite storage", zap.String("path", cfg.SQLitePath))
		db = lite
	default:
		logger.Log.Info("Using in-memory storage")
		return nil, nil
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

// ProvideSubscriptionStore хранилище подписок с необязательным кэшем в Redis
func ProvideSubscriptionStore(lc fx.Lifecycle, cfg *config.ServerConfig, db repository.Database) (subscription.Store, error) {
	var store subscription.Store
	switch d := db.(type) {
	case *repository.PostgresDB:
		store = repository.NewPostgresSubscriptionStore(d.GetConnection())
	case *repository.SQLiteDB:
		store = repository.NewSQLiteSubscriptionStore(d.GetConnection())
	default:
		mem := subscription.NewMemoryStore()
		if cfg.SubscriptionsFile != "" {
			if err := loadFixtures(mem, cfg.SubscriptionsFile); err != nil {
				return nil, err
			}
		}
		store = mem
	}

	if cfg.RedisURL == "" {
		return store, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	logger.Log.Info("Subscription lookups cached in Redis", zap.Duration("ttl", cfg.RedisCacheTTL))
	return subscription.NewRedisCache(client, store, cfg.RedisCacheTTL), nil
}

func loadFixtures(store *subscription.MemoryStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open subscriptions file: %w", err)
	}
	defer f.Close()

	if err := store.LoadFixtures(f); err != nil {
		return fmt.Errorf("load subscriptions from %s: %w", path, err)
	}
	logger.Log.Info("Subscriptions loaded", zap.String("file", path))
	return nil
}

// ProvideAuditStore основное хранилище аудита и зеркала (файл, HTTP, Kafka)
func ProvideAuditStore(lc fx.Lifecycle, cfg *config.ServerConfig, db repository.Database) (audit.Store, error) {
	var primary audit.Store
	switch d := db.(type) {
	case *repository.PostgresDB:
		primary = repository.NewPostgresAuditStore(d.GetConnection())
	case *repository.SQLiteDB:
		primary = repository.NewSQLiteAuditStore(d.GetConnection())
	default:
		primary = audit.NewMemoryStore()
	}

	var mirrors []audit.Store
	if cfg.AuditFile != "" {
		mirrors = append(mirrors, audit.NewFileStore(cfg.AuditFile))
	}
	if cfg.AuditURL != "" {
		mirrors = append(mirrors, audit.NewHTTPStore(cfg.AuditURL))
	}
	if len(cfg.KafkaBrokers) > 0 {
		client, err := audit.NewKafkaClient(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				client.Close()
				return nil
			},
		})
		mirrors = append(mirrors, audit.NewKafkaStore(client, cfg.KafkaTopic))
	}

	if cfg.AuditRetry {
		for i, m := range mirrors {
			mirrors[i] = audit.Retrying(m, retry.DefaultRetryConfig())
		}
	}

	return audit.Tee(primary, mirrors...), nil
}

// ProvideMatcher предоставляет сопоставитель подписок
func ProvideMatcher(cfg *config.ServerConfig, store subscription.Store, m *metrics.Metrics) *subscription.Matcher {
	return subscription.NewMatcher(store,
		subscription.WithTimeout(cfg.LookupTimeout),
		subscription.WithMetrics(m),
	)
}

// ProvideRecorder предоставляет запись в журнал аудита
func ProvideRecorder(cfg *config.ServerConfig, store audit.Store, m *metrics.Metrics) *audit.Recorder {
	return audit.NewRecorder(store,
		audit.WithTimeout(cfg.WriteTimeout),
		audit.WithMetrics(m),
	)
}

// ProvideCaseLog обработчик, связывающий события с делами
func ProvideCaseLog(matcher *subscription.Matcher, recorder *audit.Recorder) *caselog.Handler {
	return caselog.New(matcher, recorder)
}

// ProvideDispatcher создаёт диспетчер и подключает к нему журнал дел.
// Зависимость от caselog гарантирует, что хранилища создаются раньше,
// а значит при остановке диспетчер дренируется до их закрытия.
func ProvideDispatcher(lc fx.Lifecycle, cfg *config.ServerConfig, reg *registry.Registry, m *metrics.Metrics, h *caselog.Handler) (*dispatch.Dispatcher, error) {
	opts := []dispatch.Option{dispatch.WithMetrics(m)}
	if cfg.DispatchAsync {
		opts = append(opts, dispatch.WithAsync(cfg.QueueSize))
	}
	d := dispatch.New(reg, opts...)

	if err := h.AttachAll(d); err != nil {
		return nil, fmt.Errorf("attach case log: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			drainCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownGrace)
			defer cancel()
			if err := d.Shutdown(drainCtx); err != nil {
				logger.Log.Warn("Pending events were not drained", zap.Error(err))
				return err
			}
			return nil
		},
	})
	return d, nil
}

// ProvideServer предоставляет HTTP сервер
func ProvideServer(cfg *config.ServerConfig, reg *registry.Registry, d *dispatch.Dispatcher, db repository.Database, promReg *prometheus.Registry) *server.Server {
	return server.NewServer(cfg, server.Deps{
		Registry:  reg,
		Publisher: d,
		DB:        db,
		Gatherer:  promReg,
	})
}

// RegisterServerHooks регистрирует хуки жизненного цикла сервера.
// Сервер останавливается первым, до дренирования диспетчера.
func RegisterServerHooks(lc fx.Lifecycle, srv *server.Server) {
	lc.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Shutdown,
	})
}
