package reservation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps reservations in a process-local map.
type MemoryStore struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[Key]time.Time
}

func NewMemoryStore(window time.Duration) *MemoryStore {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MemoryStore{
		window:  window,
		entries: make(map[Key]time.Time),
	}
}

func (s *MemoryStore) Window() time.Duration { return s.window }

// caller holds s.mu
func (s *MemoryStore) live(key Key, now time.Time) bool {
	createdAt, ok := s.entries[key]
	return ok && now.Sub(createdAt) < s.window
}

func (s *MemoryStore) TryReserve(_ context.Context, key Key, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live(key, now) {
		return false, nil
	}
	s.entries[key] = now
	return true, nil
}

func (s *MemoryStore) ReserveAll(_ context.Context, now time.Time, keys ...Key) (int, error) {
	if len(keys) == 0 {
		return 0, ErrNoKeys
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, key := range keys {
		if s.live(key, now) {
			return i, nil
		}
	}
	for _, key := range keys {
		s.entries[key] = now
	}
	return -1, nil
}

func (s *MemoryStore) Release(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) Remaining(_ context.Context, key Key, now time.Time) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live(key, now) {
		return 0, nil
	}
	return s.window - now.Sub(s.entries[key]), nil
}

// Sweep drops expired entries and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if !s.live(key, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len is the number of entries held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
