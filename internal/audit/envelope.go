package audit

import (
	"encoding/json"

	"github.com/Mihklz/casetrail/internal/model"
)

// Envelope запись вместе с кейсами в том виде, в каком её получают внешние приёмники
// (файл, HTTP).
type Envelope struct {
	Entry Entry          `json:"entry"`
	Cases []model.CaseID `json:"cases"`
}

// ToJSON преобразует запись и кейсы в JSON.
func ToJSON(entry Entry, cases model.CaseSet) ([]byte, error) {
	return json.Marshal(Envelope{Entry: entry, Cases: cases})
}
