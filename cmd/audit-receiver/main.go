package main

// Пример приёмника записей аудита для HTTPStore.
//
// Запуск:
//   go run ./cmd/audit-receiver -a :9090
//
// Затем запустите хост с параметром:
//   ./server --audit-url=http://localhost:9090/audit

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/logger"
)

const maxEnvelopeSize = 1 << 20

func handleAudit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeSize))
	if err != nil {
		logger.Log.Warn("Error reading request body", zap.Error(err))
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var env audit.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		logger.Log.Warn("Error decoding envelope", zap.Error(err))
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if env.Entry.ID == uuid.Nil || len(env.Cases) == 0 {
		http.Error(w, "Envelope without entry id or cases", http.StatusUnprocessableEntity)
		return
	}

	logger.Log.Info("Received audit entry",
		zap.Stringer("id", env.Entry.ID),
		zap.Time("ts", env.Entry.Timestamp),
		zap.String("type", env.Entry.Type),
		zap.String("originator", env.Entry.Originator),
		zap.String("message", env.Entry.Message),
		zap.String("data", env.Entry.Data),
		zap.Any("cases", env.Cases),
	)

	w.WriteHeader(http.StatusOK)
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(logger.WithLogging)
	r.Post("/audit", handleAudit)
	return r
}

func main() {
	addr := flag.String("a", ":9090", "address to listen on")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := logger.Initialize(*level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("Starting audit receiver", zap.String("address", *addr))
	if err := http.ListenAndServe(*addr, newRouter()); err != nil {
		logger.Log.Error("Audit receiver stopped", zap.Error(err))
	}
}
