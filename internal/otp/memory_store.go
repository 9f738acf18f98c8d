package otp

import (
	"context"
	"crypto/subtle"
	"log"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is the in-process backend for single-instance deployments.
// Expired entries are dropped lazily on read and by a periodic sweeper.
// It does not implement AttemptCounter, so rate limiting is inactive.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	stopOnce sync.Once
	stop     chan struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
}

func (s *MemoryStore) Put(_ context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = memoryEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok {
		return "", ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, email)
		return "", ErrNotFound
	}
	return e.code, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
	return nil
}

// ConsumeIfMatch compares and deletes under a single lock hold, so two
// concurrent calls with the correct code cannot both consume the entry.
func (s *MemoryStore) ConsumeIfMatch(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[email]
	if !ok {
		return false, ErrNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, email)
		return false, ErrNotFound
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		return false, nil
	}
	delete(s.entries, email)
	return true, nil
}

func (s *MemoryStore) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.Get(ctx, email)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// StartSweeper launches the periodic cleanup goroutine. Call Close to stop it.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if removed := s.sweep(); removed > 0 {
					log.Printf("[otp][sweeper] removed %d expired codes", removed)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, email)
			removed++
		}
	}
	return removed
}
