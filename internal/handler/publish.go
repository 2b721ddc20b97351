package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/dispatch"
	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/middleware"
)

const maxPublishBody = middleware.MaxRequestBody

// Publisher часть диспетчера, нужная обработчику публикации.
type Publisher interface {
	PublishNamed(ctx context.Context, name string, originator any, data any) error
}

// PublishRequest тело POST /publish/{message}.
// originator либо строка, либо объект с полем uid.
type PublishRequest struct {
	Originator json.RawMessage `json:"originator"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// PublishResponse ответ на принятую публикацию.
type PublishResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// PublishHandler принимает события от удалённых продюсеров.
type PublishHandler struct {
	publisher Publisher
	key       string
}

// NewPublishHandler создает обработчик публикации
func NewPublishHandler(publisher Publisher, key string) http.HandlerFunc {
	h := &PublishHandler{publisher: publisher, key: key}
	return h.Handle
}

// Handle обрабатывает POST /publish/{message}
func (h *PublishHandler) Handle(w http.ResponseWriter, r *http.Request) {
	message := chi.URLParam(r, "message")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPublishBody+1))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, h.key, http.StatusRequestEntityTooLarge, "request body too large")
		return
	case err != nil:
		writeError(w, h.key, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxPublishBody {
		writeError(w, h.key, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req PublishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, h.key, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var originator any
	if len(req.Originator) > 0 {
		if err := json.Unmarshal(req.Originator, &originator); err != nil {
			writeError(w, h.key, http.StatusBadRequest, "invalid originator")
			return
		}
	}

	data, err := decodeData(req.Data)
	if err != nil {
		writeError(w, h.key, http.StatusBadRequest, "invalid data")
		return
	}

	// Запись аудита не должна обрываться, если клиент закрыл соединение
	ctx := context.WithoutCancel(r.Context())
	err = h.publisher.PublishNamed(ctx, message, originator, data)
	switch {
	case err == nil:
	case errors.Is(err, dispatch.ErrUnknownChannel):
		writeError(w, h.key, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, dispatch.ErrUnknownOriginator):
		writeError(w, h.key, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, dispatch.ErrClosed):
		writeError(w, h.key, http.StatusServiceUnavailable, err.Error())
		return
	default:
		logger.Log.Error("Publish failed", zap.String("message", message), zap.Error(err))
		writeError(w, h.key, http.StatusInternalServerError, "publish failed")
		return
	}

	writeJSON(w, PublishResponse{Status: "accepted", Message: message}, h.key, http.StatusAccepted)
}

// decodeData приводит поле data к полезной нагрузке: строка JSON становится текстом,
// остальные значения передаются как компактный JSON.
func decodeData(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}
