// Package subscription определяет, какие кейсы подписаны на пару (источник, сообщение).
package subscription

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/Mihklz/casetrail/internal/metrics"
	"github.com/Mihklz/casetrail/internal/model"
)

//go:generate mockgen -source=matcher.go -destination=mocks/mock_store.go -package=mocks

// DefaultLookupTimeout таймаут поиска подписок по умолчанию.
const DefaultLookupTimeout = 2 * time.Second

// Store источник подписок. Возвращает кейсы, подписанные ровно на пару (entityID, message).
type Store interface {
	Lookup(ctx context.Context, entityID, message string) ([]model.CaseID, error)
}

// LookupError поиск подписок не удался. Вызывающая сторона считает, что совпадений нет.
type LookupError struct {
	EntityID string
	Message  string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup subscriptions for %q/%q: %v", e.EntityID, e.Message, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// LogLevel сбой поиска логируется как предупреждение: событие просто не попадает в журналы.
func (e *LookupError) LogLevel() zapcore.Level { return zapcore.WarnLevel }

// Matcher сопоставляет события с подписками кейсов.
type Matcher struct {
	store   Store
	timeout time.Duration
	metrics *metrics.Metrics
}

// Option настраивает Matcher.
type Option func(*Matcher)

// WithTimeout ограничивает время одного поиска.
func WithTimeout(d time.Duration) Option {
	return func(m *Matcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithMetrics задаёт метрики.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) {
		m.metrics = mt
	}
}

// NewMatcher создает сопоставитель поверх хранилища подписок.
func NewMatcher(store Store, opts ...Option) *Matcher {
	m := &Matcher{store: store, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchingCases возвращает набор кейсов без повторов. Пустой результат равен nil.
func (m *Matcher) MatchingCases(ctx context.Context, originatorID, message string) (model.CaseSet, error) {
	if originatorID == "" || message == "" {
		m.metrics.IncLookup("empty")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ids, err := m.store.Lookup(ctx, originatorID, message)
	if err != nil {
		m.metrics.IncLookup("error")
		return nil, &LookupError{EntityID: originatorID, Message: message, Err: err}
	}

	set := model.NewCaseSet(ids)
	if len(set) == 0 {
		m.metrics.IncLookup("empty")
		return nil, nil
	}
	m.metrics.IncLookup("match")
	return set, nil
}
