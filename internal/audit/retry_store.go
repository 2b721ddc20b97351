package audit

import (
	"context"

	"github.com/Mihklz/casetrail/internal/model"
	"github.com/Mihklz/casetrail/internal/retry"
)

// RetryingStore повторяет временные сбои внешнего приёмника.
// Повторы ограничены контекстом записи, то есть таймаутом Recorder.
type RetryingStore struct {
	store  Store
	config *retry.RetryConfig
}

// Retrying оборачивает хранилище повторами. nil config означает конфигурацию по умолчанию.
func Retrying(store Store, config *retry.RetryConfig) *RetryingStore {
	if config == nil {
		config = retry.DefaultRetryConfig()
	}
	return &RetryingStore{store: store, config: config}
}

// AppendEntry записывает запись с повторами.
func (r *RetryingStore) AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error {
	return retry.Execute(ctx, r.config, func() error {
		return r.store.AppendEntry(ctx, entry, cases)
	})
}
