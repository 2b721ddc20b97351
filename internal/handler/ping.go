package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/repository"
)

// PingHandler проверяет соединение с базой подписок и аудита
type PingHandler struct {
	db repository.Database
}

// NewPingHandler создает новый обработчик для ping
func NewPingHandler(db repository.Database) http.HandlerFunc {
	handler := &PingHandler{db: db}
	return handler.Handle
}

// Handle обрабатывает GET запрос к /ping
func (h *PingHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Хост без базы данных (подписки в памяти) считается здоровым
	if h.db == nil {
		logger.Log.Debug("Ping without database, in-memory stores in use")
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.db.Ping(r.Context()); err != nil {
		logger.Log.Error("Database ping failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	logger.Log.Debug("Database ping successful")
}
