package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMaxKeys = 10000

// MemoryStore is an in-process Store. It caps the number of tracked keys and
// evicts the least recently used ones when full, so a flood of unique client
// IPs degrades accuracy instead of exhausting memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   *list.List // front = most recently used, values are *entry
	maxKeys int

	metrics Metrics
	limiter string
}

type entry struct {
	key        string
	timestamps []time.Time
	elem       *list.Element
}

// MemoryStoreOptions configures a MemoryStore. The zero value is usable.
type MemoryStoreOptions struct {
	// MaxKeys caps the tracked keys; 0 means 10000.
	MaxKeys int

	// Metrics, when set, receives eviction counts under the Limiter label.
	Metrics Metrics
	Limiter string
}

// NewMemoryStore builds an empty store.
func NewMemoryStore(opts MemoryStoreOptions) *MemoryStore {
	if opts.MaxKeys <= 0 {
		opts.MaxKeys = defaultMaxKeys
	}
	return &MemoryStore{
		entries: make(map[string]*entry),
		order:   list.New(),
		maxKeys: opts.MaxKeys,
		metrics: opts.Metrics,
		limiter: opts.Limiter,
	}
}

// AddRequest records one request for key, evicting the coldest keys first if
// the store is full and key is new.
func (s *MemoryStore) AddRequest(ctx context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(key, at)
	return nil
}

// CountSince reports the requests for key newer than cutoff.
func (s *MemoryStore) CountSince(ctx context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(key, cutoff), nil
}

// CheckAndAdd admits and records the request when the count after cutoff is
// below limit. Check and record share one lock acquisition, so concurrent
// requests cannot both sneak under the limit.
func (s *MemoryStore) CheckAndAdd(ctx context.Context, key string, at, cutoff time.Time, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.countLocked(key, cutoff)
	if count >= limit {
		return false, count, nil
	}
	s.record(key, at)
	return true, count + 1, nil
}

// Cleanup drops timestamps at or before cutoff and forgets keys left empty.
func (s *MemoryStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		kept := e.timestamps[:0]
		for _, ts := range e.timestamps {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			s.order.Remove(e.elem)
			delete(s.entries, key)
			continue
		}
		e.timestamps = kept
	}
	return nil
}

// KeyCount reports the number of tracked keys.
func (s *MemoryStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// EstimateMemory approximates the store's heap footprint in bytes, for the
// cleanup goroutine's high-watermark warning. Counts map entries, timestamp
// slices, and LRU nodes at fixed per-item costs.
func (s *MemoryStore) EstimateMemory() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const perEntry, perTimestamp = 160, 24
	total := int64(len(s.entries)) * perEntry
	for _, e := range s.entries {
		total += int64(cap(e.timestamps)) * perTimestamp
	}
	return total
}

func (s *MemoryStore) countLocked(key string, cutoff time.Time) int {
	e, ok := s.entries[key]
	if !ok {
		return 0
	}
	n := 0
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

// record appends a timestamp and refreshes the key's LRU position. Callers
// hold the write lock.
func (s *MemoryStore) record(key string, at time.Time) {
	e, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= s.maxKeys {
			s.evict()
		}
		e = &entry{key: key}
		e.elem = s.order.PushFront(e)
		s.entries[key] = e
	} else {
		s.order.MoveToFront(e.elem)
	}
	e.timestamps = append(e.timestamps, at)
}

// evict removes the coldest tenth of the keys. Batch eviction keeps a store
// running at capacity from paying the eviction cost on every new key.
func (s *MemoryStore) evict() {
	target := s.maxKeys / 10
	if target < 1 {
		target = 1
	}

	evicted := 0
	for evicted < target {
		back := s.order.Back()
		if back == nil {
			break
		}
		e := back.Value.(*entry)
		s.order.Remove(back)
		delete(s.entries, e.key)
		evicted++
	}
	if evicted > 0 && s.metrics != nil {
		s.metrics.RecordEvictions(s.limiter, evicted)
	}
}
