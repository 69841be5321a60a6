package storage

import (
	"sync"
)

// MemoryStore keeps packets in a map. A capacity of zero or less is unbounded.
type MemoryStore struct {
	mutex    sync.RWMutex
	packets  map[Handle][]byte
	next     Handle
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{
		packets:  make(map[Handle][]byte),
		capacity: capacity,
	}
}

func (s *MemoryStore) Add(wire []byte) (Handle, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.capacity > 0 && len(s.packets) >= s.capacity {
		return 0, ErrStoreFull
	}
	s.next++
	s.packets[s.next] = append([]byte(nil), wire...)
	return s.next, nil
}

func (s *MemoryStore) Get(h Handle) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	wire, ok := s.packets[h]
	if !ok {
		return nil, ErrNotFound
	}
	return wire, nil
}

func (s *MemoryStore) Release(h Handle) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.packets[h]; !ok {
		return ErrNotFound
	}
	delete(s.packets, h)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.packets)
}

func (s *MemoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	clear(s.packets)
	return nil
}
