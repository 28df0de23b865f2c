package decay

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory. Records are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Decode(s.data)
}

func (s *MemoryStore) Update(_ context.Context, state State) error {
	data, err := Encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	return nil
}

// Raw returns a copy of the stored record bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]byte(nil), s.data...)
}
