package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/metrics"
	"github.com/Mihklz/casetrail/internal/model"
)

// DefaultWriteTimeout таймаут записи, если не задан WithTimeout.
const DefaultWriteTimeout = 5 * time.Second

// PersistenceError запись в хранилище аудита не удалась. Повтор не выполняется.
type PersistenceError struct {
	EntryID uuid.UUID
	Cases   model.CaseSet
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist audit entry %s for %d case(s): %v", e.EntryID, len(e.Cases), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Recorder строит запись аудита и сохраняет её за всеми сопоставленными кейсами.
type Recorder struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
	newID   func() uuid.UUID
	metrics *metrics.Metrics
}

// RecorderOption настраивает Recorder.
type RecorderOption func(*Recorder)

// WithTimeout ограничивает время одной записи.
func WithTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock подменяет источник времени записи.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator подменяет генератор идентификаторов записей.
func WithIDGenerator(newID func() uuid.UUID) RecorderOption {
	return func(r *Recorder) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithMetrics задаёт метрики.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder создает регистратор поверх хранилища.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		timeout: DefaultWriteTimeout,
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record сохраняет одну запись за набором кейсов. Пустой набор ничего не делает.
func (r *Recorder) Record(ctx context.Context, cases model.CaseSet, category, message, originatorID string, rawData any) error {
	if len(cases) == 0 {
		return nil
	}

	data, fallback := Serialize(rawData)
	if fallback {
		r.metrics.IncFallbacks()
		logger.Log.Warn("Audit payload is not JSON-encodable, stored as text",
			zap.String("originator", originatorID),
			zap.String("message", message),
			zap.String("payload_type", fmt.Sprintf("%T", rawData)),
		)
	}

	entry := Entry{
		ID:         r.newID(),
		Type:       category,
		Timestamp:  r.now().UTC(),
		Originator: originatorID,
		Message:    message,
		Data:       data,
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := r.store.AppendEntry(ctx, entry, cases)
	r.metrics.ObserveRecord(time.Since(start).Seconds(), err)
	if err != nil {
		return &PersistenceError{EntryID: entry.ID, Cases: cases, Err: err}
	}

	logger.Log.Debug("Audit entry recorded",
		zap.String("entry_id", entry.ID.String()),
		zap.String("originator", originatorID),
		zap.Strings("cases", cases.Strings()),
	)
	return nil
}
