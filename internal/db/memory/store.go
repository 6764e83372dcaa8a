// Package memory is an in-process db.Store for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/semindex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

type member struct {
	name  string
	score float64
}

// Store keeps keys and sorted sets in maps guarded by one mutex.
type Store struct {
	mu   sync.Mutex
	kv   map[string]entry
	sets map[string][]member
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		kv:   make(map[string]entry),
		sets: make(map[string][]member),
		now:  time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return cloneBytes(e.value), nil
}

// MGet retrieves several values. Missing keys yield nil.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if e, ok := s.lookup(k); ok {
			out[i] = cloneBytes(e.value)
		}
	}
	return out, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = entry{value: cloneBytes(value)}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = entry{value: cloneBytes(value), expiresAt: s.now().Add(ttl)}
	return nil
}

// Del removes keys and sorted sets.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.kv, k)
		delete(s.sets, k)
	}
	return nil
}

// IncrBy increments an integer value, creating it at zero.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cur int64
	e, ok := s.lookup(key)
	if ok {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}
	cur += val
	e.value = []byte(strconv.FormatInt(cur, 10))
	s.kv[key] = e
	return cur, nil
}

// Expire sets TTL on a key. When nx=true, only keys without expiry are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if nx && !e.expiresAt.IsZero() {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	s.kv[key] = e
	return nil
}

// ZAddNX adds a member only if it is not already present.
func (s *Store) ZAddNX(_ context.Context, key string, score float64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	for _, m := range set {
		if m.name == name {
			return nil
		}
	}
	set = append(set, member{name: name, score: score})
	sort.SliceStable(set, func(i, j int) bool {
		if set[i].score != set[j].score {
			return set[i].score < set[j].score
		}
		return set[i].name < set[j].name
	})
	s.sets[key] = set
	return nil
}

// ZRange returns members by rank, inclusive; negative indexes count from the end.
func (s *Store) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sets[key]
	n := int64(len(set))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return []string{}, nil
	}
	out := make([]string, 0, stop-start+1)
	for _, m := range set[start : stop+1] {
		out = append(out, m.name)
	}
	return out, nil
}

// ZCard returns the set size.
func (s *Store) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[key])), nil
}

// ZRem removes members from the set.
func (s *Store) ZRem(_ context.Context, key string, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	set := s.sets[key][:0]
	for _, m := range s.sets[key] {
		if !drop[m.name] {
			set = append(set, m)
		}
	}
	if len(set) == 0 {
		delete(s.sets, key)
		return nil
	}
	s.sets[key] = set
	return nil
}

// lookup returns a live entry, evicting it if expired. Caller holds mu.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.kv[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.kv, key)
		return entry{}, false
	}
	return e, true
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
