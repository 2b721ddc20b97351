package audit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

// HTTPStore отправляет записи аудита на внешний приёмник методом POST.
type HTTPStore struct {
	url    string
	client *http.Client
}

// NewHTTPStore создает хранилище для отправки по HTTP
func NewHTTPStore(url string) *HTTPStore {
	return &HTTPStore{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second, // Таймаут для HTTP-запросов
		},
	}
}

// AppendEntry отправляет запись на удаленный сервер.
// Ответ не из диапазона 2xx считается ошибкой: текст статуса попадает в ошибку,
// чтобы классификатор повторов узнал 502/503/504/429.
func (h *HTTPStore) AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error {
	data, err := ToJSON(entry, cases)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Log.Error("Failed to send audit entry to HTTP endpoint",
			zap.String("url", h.url),
			zap.Error(err),
		)
		return fmt.Errorf("send audit entry: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Log.Warn("HTTP audit endpoint returned non-success status",
			zap.String("url", h.url),
			zap.Int("status_code", resp.StatusCode),
		)
		return fmt.Errorf("audit endpoint returned %s", resp.Status)
	}

	logger.Log.Debug("Audit entry sent to HTTP endpoint",
		zap.String("url", h.url),
		zap.Int("status_code", resp.StatusCode),
		zap.String("entry_id", entry.ID.String()),
	)
	return nil
}
