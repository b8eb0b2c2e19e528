package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps registrations in process memory. Used in tests and
// for running the bot without external storage.
type MemoryStore struct {
	mu   sync.RWMutex
	regs map[string]*Registration
	now  func() time.Time
	seq  int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		regs: make(map[string]*Registration),
		now:  time.Now,
	}
}

func (s *MemoryStore) CreateRegistration(_ context.Context, reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *reg
	stored.ID = uuid.NewString()
	stored.CreatedAt = s.now()
	s.seq++
	// Tie-break equal timestamps by insertion order so "latest" stays
	// deterministic under the fake clocks tests use.
	stored.CreatedAt = stored.CreatedAt.Add(time.Duration(s.seq) * time.Nanosecond)
	s.regs[stored.ID] = &stored
	return nil
}

func (s *MemoryStore) LatestByTelegramID(_ context.Context, telegramID string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *Registration
	for _, reg := range s.regs {
		if reg.TelegramID != telegramID {
			continue
		}
		if latest == nil || reg.CreatedAt.After(latest.CreatedAt) {
			latest = reg
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (s *MemoryStore) ByID(_ context.Context, id string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *reg
	return &out, nil
}

func (s *MemoryStore) MarkPaid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[id]
	if !ok {
		return ErrNotFound
	}
	reg.IsPaid = true
	return nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Registration, 0, len(s.regs))
	for _, reg := range s.regs {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
