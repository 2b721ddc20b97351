package dispatch

import (
	"context"
	"sync"

	"github.com/Mihklz/casetrail/internal/registry"
)

type queued struct {
	ctx context.Context
	ev  Event
}

// lane состояние одного канала. Список обработчиков заменяется целиком при
// изменении, поэтому снимок можно обходить без блокировки.
type lane struct {
	channel  registry.Channel
	mu       sync.RWMutex
	handlers []Handler
	queue    chan queued
}

func (l *lane) snapshot() []Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handlers
}

func (l *lane) attach(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.handlers {
		if existing == h {
			return
		}
	}
	next := make([]Handler, len(l.handlers), len(l.handlers)+1)
	copy(next, l.handlers)
	l.handlers = append(next, h)
}

func (l *lane) detach(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.handlers {
		if existing == h {
			next := make([]Handler, 0, len(l.handlers)-1)
			next = append(next, l.handlers[:i]...)
			l.handlers = append(next, l.handlers[i+1:]...)
			return
		}
	}
}
