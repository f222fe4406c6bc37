// Package memory provides an in-memory audit store for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	audit "serviapp/pkg/platform/audit"
)

type row struct {
	id        string
	event     audit.Event
	published bool
}

type InMemoryStore struct {
	mu   sync.RWMutex
	rows []*row
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, &row{id: uuid.NewString(), event: event})
	return nil
}

// NextBatch returns up to limit unpublished rows, oldest first.
func (s *InMemoryStore) NextBatch(_ context.Context, limit int) ([]audit.OutboxRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.OutboxRow
	for _, r := range s.rows {
		if r.published {
			continue
		}
		payload, err := json.Marshal(r.event)
		if err != nil {
			return nil, err
		}
		out = append(out, audit.OutboxRow{ID: r.id, Action: r.event.Action, Payload: payload})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished flags rows as delivered so they are not claimed again.
func (s *InMemoryStore) MarkPublished(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for _, r := range s.rows {
		if marked[r.id] {
			r.published = true
		}
	}
	return nil
}

// Events returns a snapshot of everything appended. Test helper.
func (s *InMemoryStore) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]audit.Event, 0, len(s.rows))
	for _, r := range s.rows {
		events = append(events, r.event)
	}
	return events
}
