// Package server поднимает HTTP API хоста: приём событий, список каналов, метрики.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/config"
	"github.com/Mihklz/casetrail/internal/handler"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/middleware"
	"github.com/Mihklz/casetrail/internal/registry"
	"github.com/Mihklz/casetrail/internal/repository"
)

// Deps зависимости маршрутов.
type Deps struct {
	Registry  *registry.Registry
	Publisher handler.Publisher
	DB        repository.Database // nil, если хост работает без базы
	Gatherer  prometheus.Gatherer
}

// Server HTTP сервер хоста
type Server struct {
	config     *config.ServerConfig
	deps       Deps
	httpServer *http.Server
	router     *chi.Mux
	listener   net.Listener
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
	}

	s.setupRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// setupRouter настраивает маршруты
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(logger.WithLogging)
	r.Use(middleware.WithGzip)

	r.Get("/ping", handler.NewPingHandler(s.deps.DB))
	r.Get("/channels", handler.NewChannelsHandler(s.deps.Registry, s.config.Key))
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.With(middleware.WithHashValidation(s.config.Key)).
		Post("/publish/{message}", handler.NewPublishHandler(s.deps.Publisher, s.config.Key))

	s.router = r
}

// Router возвращает корневой обработчик. Используется в тестах.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start занимает адрес синхронно, чтобы ошибка привязки вернулась вызывающему,
// и обслуживает запросы в отдельной горутине.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.config.RunAddr)
	if err != nil {
		return err
	}
	s.listener = ln

	logger.Log.Info("Starting casetrail server", zap.String("address", ln.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Addr фактический адрес после Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.RunAddr
	}
	return s.listener.Addr().String()
}

// Shutdown выполняет graceful shutdown сервера
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Log.Info("Server stopped gracefully")
	return nil
}
