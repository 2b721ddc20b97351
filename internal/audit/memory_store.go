package audit

import (
	"context"
	"sync"

	"github.com/Mihklz/casetrail/internal/model"
)

// MemoryStore хранилище в памяти. Используется в тестах и в режиме без базы данных.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	byCase  map[model.CaseID][]int
	calls   int
	failErr error
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byCase: make(map[model.CaseID][]int)}
}

// AppendEntry сохраняет запись и связывает её с кейсами.
func (s *MemoryStore) AppendEntry(_ context.Context, entry Entry, cases model.CaseSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failErr != nil {
		return s.failErr
	}

	idx := len(s.entries)
	s.entries = append(s.entries, entry)
	for _, c := range cases {
		s.byCase[c] = append(s.byCase[c], idx)
	}
	return nil
}

// FailWith заставляет все следующие записи завершаться ошибкой. nil отключает сбой.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.failErr = err
	s.mu.Unlock()
}

// Calls количество вызовов AppendEntry, включая неуспешные.
func (s *MemoryStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Entries все сохранённые записи.
func (s *MemoryStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// ByCase записи, связанные с кейсом.
func (s *MemoryStore) ByCase(id model.CaseID) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.byCase[id]))
	for _, i := range s.byCase[id] {
		out = append(out, s.entries[i])
	}
	return out
}
