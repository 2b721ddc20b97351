package dispatch

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/audit"
	"github.com/Mihklz/casetrail/internal/logger"
)

// freeze фиксирует изменяемую полезную нагрузку в момент публикации.
// В фоновом режиме обработчик видит событие позже, чем его отпустил продюсер,
// поэтому map, срезы, указатели и структуры заменяются их сериализованной формой.
// Скаляры неизменяемы и передаются как есть.
func (d *Dispatcher) freeze(name string, data any) any {
	if data == nil {
		return nil
	}
	switch reflect.ValueOf(data).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Struct, reflect.Interface:
	default:
		return data
	}

	s, fallback := audit.Serialize(data)
	if fallback {
		d.metrics.IncFallbacks()
		logger.Log.Warn("Queued payload is not JSON-encodable, frozen as text",
			zap.String("channel", name),
			zap.String("payload_type", fmt.Sprintf("%T", data)),
		)
	}
	return s
}
