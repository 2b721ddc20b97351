// Package registry хранит именованные каналы уведомлений процесса.
//
// Канал создаётся один раз при старте и больше не меняется. Имя сообщения уникально
// в пределах процесса, категория используется только для группировки.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrSealed возвращается при попытке зарегистрировать канал после Seal.
var ErrSealed = errors.New("registry is sealed")

// Channel именованная точка уведомления.
type Channel struct {
	Category    string // группа событий: "Workflow", "Action", ...
	Name        string // имя сообщения, ключ маршрутизации
	Description string // человекочитаемое описание, попадает в запись аудита
}

// RegistrationError ошибка регистрации канала. Возникает только при старте.
type RegistrationError struct {
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register channel %q: %s", e.Name, e.Reason)
}

// Registry таблица каналов. После Seal чтение идёт без блокировок.
type Registry struct {
	mu       sync.RWMutex
	sealed   atomic.Bool
	byName   map[string]int
	channels []Channel
}

// New создает пустой реестр.
func New() *Registry {
	return &Registry{
		byName: make(map[string]int),
	}
}

// Register добавляет канал. Повторное имя считается ошибкой программы.
func (r *Registry) Register(category, name, description string) (Channel, error) {
	if name == "" {
		return Channel{}, &RegistrationError{Name: name, Reason: "empty message name"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return Channel{}, fmt.Errorf("register channel %q: %w", name, ErrSealed)
	}
	if _, exists := r.byName[name]; exists {
		return Channel{}, &RegistrationError{Name: name, Reason: "duplicate message name"}
	}

	ch := Channel{Category: category, Name: name, Description: description}
	r.byName[name] = len(r.channels)
	r.channels = append(r.channels, ch)
	return ch, nil
}

// Seal запрещает дальнейшую регистрацию.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed.Store(true)
	r.mu.Unlock()
}

// Sealed сообщает, закрыт ли реестр для регистрации.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Lookup ищет канал по имени сообщения.
func (r *Registry) Lookup(name string) (Channel, bool) {
	if !r.sealed.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	i, ok := r.byName[name]
	if !ok {
		return Channel{}, false
	}
	return r.channels[i], true
}

// Channels возвращает копию всех каналов в порядке регистрации.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Len количество зарегистрированных каналов.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
