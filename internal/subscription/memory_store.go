package subscription

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Mihklz/casetrail/internal/model"
)

type pair struct {
	entity  string
	message string
}

// MemoryStore подписки в памяти. Изменяется только при загрузке фикстур.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[pair][]model.CaseID
}

// NewMemoryStore создает пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[pair][]model.CaseID)}
}

// Lookup возвращает копию списка подписанных кейсов.
func (s *MemoryStore) Lookup(ctx context.Context, entityID, message string) ([]model.CaseID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.subs[pair{entityID, message}]
	if len(ids) == 0 {
		return nil, nil
	}
	return append([]model.CaseID(nil), ids...), nil
}

// Subscribe подписывает кейс на пару. Повторная подписка ничего не меняет.
func (s *MemoryStore) Subscribe(caseID model.CaseID, entityID string, messages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range messages {
		key := pair{entityID, msg}
		if model.CaseSet(s.subs[key]).Contains(caseID) {
			continue
		}
		s.subs[key] = append(s.subs[key], caseID)
	}
}

// Unsubscribe снимает подписку кейса с пары.
func (s *MemoryStore) Unsubscribe(caseID model.CaseID, entityID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{entityID, message}
	ids := s.subs[key]
	for i, id := range ids {
		if id == caseID {
			s.subs[key] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.subs[key]) == 0 {
		delete(s.subs, key)
	}
}

// Fixtures формат файла подписок.
//
//	cases:
//	  - id: C1
//	    subscriptions:
//	      - entity: wf-42
//	        messages: ["Workflow Execution Start"]
type Fixtures struct {
	Cases []CaseFixture `yaml:"cases"`
}

// CaseFixture подписки одного кейса.
type CaseFixture struct {
	ID            model.CaseID          `yaml:"id"`
	Subscriptions []SubscriptionFixture `yaml:"subscriptions"`
}

// SubscriptionFixture сообщения, на которые кейс подписан у одного источника.
type SubscriptionFixture struct {
	Entity   string   `yaml:"entity"`
	Messages []string `yaml:"messages"`
}

// LoadFixtures читает YAML и добавляет подписки в хранилище.
func (s *MemoryStore) LoadFixtures(r io.Reader) error {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return fmt.Errorf("decode subscription fixtures: %w", err)
	}

	// Сначала проверяем весь файл, чтобы не применить его частично
	for i, c := range fx.Cases {
		if c.ID == "" {
			return fmt.Errorf("subscription fixtures: case #%d has no id", i)
		}
		for _, sub := range c.Subscriptions {
			if sub.Entity == "" {
				return fmt.Errorf("subscription fixtures: case %s has subscription without entity", c.ID)
			}
		}
	}

	for _, c := range fx.Cases {
		for _, sub := range c.Subscriptions {
			s.Subscribe(c.ID, sub.Entity, sub.Messages...)
		}
	}
	return nil
}
