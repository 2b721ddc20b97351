package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnknownOriginator из значения не удалось извлечь идентификатор источника.
var ErrUnknownOriginator = errors.New("cannot resolve originator id")

// Identifiable сущность, которая сама сообщает свой идентификатор.
type Identifiable interface {
	UID() string
}

// OriginatorID приводит источник события к строковому идентификатору.
// Принимаются: строка, Identifiable, map с ключом "uid", структура (или указатель на неё)
// со строковым полем UID или полем с тегом json:"uid".
// Паника внутри UID() тоже считается неизвестным источником.
func OriginatorID(v any) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			id, err = "", fmt.Errorf("%w: UID panicked: %v", ErrUnknownOriginator, r)
		}
	}()

	if v == nil {
		return "", ErrUnknownOriginator
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", ErrUnknownOriginator
	}

	switch o := v.(type) {
	case string:
		id = o
	case Identifiable:
		id = o.UID()
	case map[string]string:
		id = o["uid"]
	case map[string]any:
		s, ok := o["uid"].(string)
		if !ok {
			return "", fmt.Errorf("%w: uid key is %T", ErrUnknownOriginator, o["uid"])
		}
		id = s
	default:
		s, ok := structUID(rv)
		if !ok {
			return "", fmt.Errorf("%w: unsupported type %T", ErrUnknownOriginator, v)
		}
		id = s
	}

	if id == "" {
		return "", fmt.Errorf("%w: empty uid", ErrUnknownOriginator)
	}
	return id, nil
}

func structUID(rv reflect.Value) (string, bool) {
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.String {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Name == "UID" || tag == "uid" {
			return rv.Field(i).String(), true
		}
	}
	return "", false
}
