package table

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds the host tables served by one process.
type Store struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*Host
}

func NewStore() *Store {
	return &Store{
		tables: make(map[uuid.UUID]*Host),
	}
}

func (s *Store) Add(h *Host) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[h.ID] = h
}

func (s *Store) Get(id uuid.UUID) (*Host, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, exists := s.tables[id]
	return h, exists
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables)
}

// Prune drops tables whose link has closed, and tables that never got a guest
// within maxWait of being created. It returns the number removed.
func (s *Store) Prune(now time.Time, maxWait time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, h := range s.tables {
		h.Mu.Lock()
		dead := h.closeErr != nil || (h.link == nil && now.Sub(h.createdAt) > maxWait)
		h.Mu.Unlock()
		if dead {
			delete(s.tables, id)
			removed++
		}
	}
	return removed
}
