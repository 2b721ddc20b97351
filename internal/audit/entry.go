// Package audit строит неизменяемые записи аудита и сохраняет их за кейсами.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Mihklz/casetrail/internal/model"
)

// Entry запись аудита. После создания не меняется.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`       // категория канала
	Timestamp  time.Time `json:"timestamp"`  // UTC, момент построения записи
	Originator string    `json:"originator"` // идентификатор источника
	Message    string    `json:"message"`    // описание канала
	Data       string    `json:"data"`       // сериализованная полезная нагрузка, всегда строка
}

// Store хранилище записей аудита. Один вызов на одно сопоставленное событие,
// рассылку по журналам кейсов выполняет само хранилище.
type Store interface {
	AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error
}
