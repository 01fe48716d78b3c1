package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Blob Store, used in debug mode and by tests.
type MemoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	removals []string
	failures map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:  make(map[string][]byte),
		failures: make(map[string]error),
	}
}

func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
}

// Keys returns the sorted keys starting with prefix.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Removals returns the prefixes passed to RemovePrefix, in call order.
func (s *MemoryStore) Removals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.removals...)
}

// FailOn makes RemovePrefix(prefix) return err.
func (s *MemoryStore) FailOn(prefix string, err error) {
	s.mu.Lock()
	s.failures[prefix] = err
	s.mu.Unlock()
}

func (s *MemoryStore) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	if strings.Trim(prefix, "/") == "" {
		return 0, ErrEmptyPrefix
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removals = append(s.removals, prefix)
	if err, ok := s.failures[prefix]; ok {
		return 0, err
	}
	var n int
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			delete(s.objects, k)
			n++
		}
	}
	return n, nil
}
