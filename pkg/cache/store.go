package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// Store is an in-process response cache with lazy TTL expiry.
// It has no capacity bound; stale entries are removed when they are read
// or when Purge runs.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewStore creates an empty response store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// SetClock replaces the time source (for testing).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get retrieves the entry stored under key.
// Returns false if the key doesn't exist or the entry is expired.
func (s *Store) Get(key string) (*Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if !ok {
		CacheMisses.Inc()
		return nil, false
	}

	if entry.ExpiredAt(now) {
		s.mu.Lock()
		// Only drop it if nobody replaced it in the meantime
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
			CacheEntries.Set(float64(len(s.entries)))
		}
		s.mu.Unlock()
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.Inc()
	return entry, true
}

// Put stores entry under key with Expires = now + ttl, replacing any
// previous entry. A non-positive ttl or nil entry stores nothing.
func (s *Store) Put(key string, entry *Entry, ttl time.Duration) {
	if entry == nil || ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *entry
	stored.Data = bytes.Clone(entry.Data)
	stored.Headers = entry.Headers.Clone()
	stored.CachedAt = now
	stored.Expires = now.Add(ttl)
	s.entries[key] = &stored

	CacheEntries.Set(float64(len(s.entries)))
}

// Delete removes an entry.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	CacheEntries.Set(float64(len(s.entries)))
}

// Len returns the number of entries held, including expired ones that
// have not been purged yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Purge removes all expired entries and returns how many were dropped.
func (s *Store) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.ExpiredAt(now) {
			delete(s.entries, key)
			removed++
		}
	}

	CacheEntries.Set(float64(len(s.entries)))
	return removed
}

// RunJanitor purges expired entries every interval until ctx is done.
// It returns immediately if interval is not positive.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Purge(); removed > 0 {
				CachePurged.Add(float64(removed))
			}
		}
	}
}
