package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Mihklz/casetrail/internal/pool"
)

const maxPooledBuffer = 64 << 10

var buffers = pool.NewBufferPool(maxPooledBuffer)

// Serialize приводит полезную нагрузку к строке. Функция тотальная:
// nil даёт пустую строку, текст (в том числе именованные строковые типы)
// возвращается как есть, остальное кодируется в JSON,
// а если это невозможно, используется fmt-представление и fallback = true.
func Serialize(v any) (data string, fallback bool) {
	switch d := v.(type) {
	case nil:
		return "", false
	case string:
		return d, false
	case []byte:
		return string(d), false
	case json.RawMessage:
		return string(d), false
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), false
	}

	if s, ok := encodeJSON(v); ok {
		return s, false
	}
	return textual(v), true
}

func encodeJSON(v any) (s string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = "", false
		}
	}()

	buf := buffers.Get()
	defer buffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", false
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), true
}

func textual(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("%T", v)
		}
	}()
	return fmt.Sprintf("%v", v)
}
