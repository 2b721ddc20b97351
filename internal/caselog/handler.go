// Package caselog связывает диспетчер с журналами кейсов: для каждого события
// находит подписанные кейсы и сохраняет за ними запись аудита.
package caselog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mihklz/casetrail/internal/catalog"
	"github.com/Mihklz/casetrail/internal/dispatch"
	"github.com/Mihklz/casetrail/internal/model"
)

//go:generate mockgen -source=handler.go -destination=mocks/mock_handler.go -package=mocks

const tracerName = "github.com/Mihklz/casetrail/internal/caselog"

// Matcher ищет кейсы, подписанные на пару (источник, имя сообщения).
type Matcher interface {
	MatchingCases(ctx context.Context, originatorID, message string) (model.CaseSet, error)
}

// Recorder сохраняет одну запись аудита за набором кейсов.
type Recorder interface {
	Record(ctx context.Context, cases model.CaseSet, category, message, originatorID string, rawData any) error
}

// Handler постоянный обработчик аудита. Один экземпляр обслуживает все аудируемые каналы.
type Handler struct {
	matcher  Matcher
	recorder Recorder
	tracer   trace.Tracer
}

// Option настраивает Handler.
type Option func(*Handler)

// WithTracer задаёт трассировщик. По умолчанию берётся глобальный провайдер otel.
func WithTracer(t trace.Tracer) Option {
	return func(h *Handler) {
		if t != nil {
			h.tracer = t
		}
	}
}

// New создает обработчик.
func New(matcher Matcher, recorder Recorder, opts ...Option) *Handler {
	h := &Handler{
		matcher:  matcher,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle сопоставляет событие с подписками и записывает его.
// Ошибка поиска возвращается диспетчеру, запись при этом не выполняется.
func (h *Handler) Handle(ctx context.Context, ev dispatch.Event) (err error) {
	ctx, span := h.tracer.Start(ctx, "caselog.handle",
		trace.WithAttributes(
			attribute.String("casetrail.channel", ev.Channel.Name),
			attribute.String("casetrail.category", ev.Channel.Category),
			attribute.String("casetrail.originator", ev.OriginatorID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	cases, err := h.matcher.MatchingCases(ctx, ev.OriginatorID, ev.Channel.Name)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("casetrail.cases", len(cases)))
	if len(cases) == 0 {
		return nil
	}

	return h.recorder.Record(ctx, cases, ev.Channel.Category, ev.Channel.Description, ev.OriginatorID, ev.Data)
}

// AttachAll подключает обработчик ко всем аудируемым каналам каталога.
func (h *Handler) AttachAll(d *dispatch.Dispatcher) error {
	for _, e := range catalog.Audited() {
		if err := d.Attach(e.Handle, h); err != nil {
			return fmt.Errorf("attach audit handler to %q: %w", e.Handle.Name(), err)
		}
	}
	return nil
}
