// Package middleware содержит HTTP middleware хоста: gzip и проверку подписи.
package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/crypto"
	"github.com/Mihklz/casetrail/internal/logger"
)

// WithHashValidation проверяет подпись тела запроса. Без ключа пропускает всё.
// С ключом запрос без подписи или с неверной подписью отклоняется,
// а тело больше MaxRequestBody даёт 413.
func WithHashValidation(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || r.Body == nil || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				logger.Log.Error("Failed to read request body", zap.Error(err))
				http.Error(w, "Failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body.Close()

			// Восстанавливаем тело запроса для последующих обработчиков
			r.Body = io.NopCloser(bytes.NewReader(body))

			receivedHash := r.Header.Get(crypto.SignatureHeader)
			if !crypto.ValidateHMAC(body, key, receivedHash) {
				logger.Log.Warn("Hash validation failed",
					zap.Bool("signature_present", receivedHash != ""),
					zap.String("method", r.Method),
					zap.String("url", r.URL.Path),
				)
				http.Error(w, "Hash validation failed", http.StatusBadRequest)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
