package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/crypto"
	"github.com/Mihklz/casetrail/internal/logger"
)

// WriteResponseWithHash записывает ответ с добавлением хеша в заголовок, если есть ключ
func WriteResponseWithHash(w http.ResponseWriter, data []byte, key string, statusCode int, contentType string) {
	if key != "" && len(data) > 0 {
		w.Header().Set(crypto.SignatureHeader, crypto.CalculateHMAC(data, key))
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(statusCode)

	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			logger.Log.Debug("Failed to write response", zap.Error(err))
		}
	}
}

// writeJSON кодирует v и отправляет его с подписью.
func writeJSON(w http.ResponseWriter, v any, key string, statusCode int) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	WriteResponseWithHash(w, data, key, statusCode, "application/json")
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, key string, statusCode int, msg string) {
	writeJSON(w, errorResponse{Error: msg}, key, statusCode)
}
