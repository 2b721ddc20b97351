package pool

import (
	"bytes"
	"sync"
)

// Resetter описывает типы, которые умеют сбрасывать своё состояние.
type Resetter interface {
	Reset()
}

// Pool типобезопасная обёртка над sync.Pool для объектов, поддерживающих метод Reset.
type Pool[T Resetter] struct {
	p    *sync.Pool
	keep func(T) bool
}

// Option настраивает пул.
type Option[T Resetter] func(*Pool[T])

// WithKeep задаёт условие, при котором объект возвращается в пул.
// Объекты, для которых keep вернул false, отдаются сборщику мусора.
func WithKeep[T Resetter](keep func(T) bool) Option[T] {
	return func(p *Pool[T]) {
		p.keep = keep
	}
}

// New создаёт новый пул для объектов типа T.
//
// newFn вызывается при исчерпании пула. Если newFn равен nil, Get на пустом пуле
// возвращает нулевое значение T.
func New[T Resetter](newFn func() T, opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{p: &sync.Pool{}}
	if newFn != nil {
		p.p.New = func() any {
			return newFn()
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get возвращает объект из пула.
func (p *Pool[T]) Get() T {
	v := p.p.Get()
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// Put возвращает объект в пул.
// Перед возвратом всегда вызывается метод Reset(), чтобы очистить состояние.
func (p *Pool[T]) Put(v T) {
	if p.keep != nil && !p.keep(v) {
		return
	}
	v.Reset()
	p.p.Put(v)
}

// NewBufferPool пул буферов сериализации. Буферы больше maxRetained байт
// не возвращаются в пул, чтобы один крупный payload не держал память.
func NewBufferPool(maxRetained int) *Pool[*bytes.Buffer] {
	return New(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		WithKeep(func(b *bytes.Buffer) bool { return b != nil && b.Cap() <= maxRetained }),
	)
}
