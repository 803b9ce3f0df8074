// Package store holds fetched entity collections for the dashboard views.
// Contents are advisory: the upstream API is always the source of truth,
// and every mutating call is followed by a canonical replace.
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Record is anything the store can hold
type Record interface {
	EntityID() string
}

// Loader fetches the full collection from the upstream API
type Loader[T Record] func(ctx context.Context, token string) ([]T, error)

// Store is a view-backing collection of entities, replaced wholesale on
// every successful load. A failed load leaves the previous contents
// intact; there is no partial clobber.
type Store[T Record] struct {
	name   string
	loader Loader[T]
	logger *zap.Logger

	mu      sync.RWMutex
	records []T
	byID    map[string]int
	loaded  bool
}

// New creates a store for one collection
func New[T Record](name string, loader Loader[T], logger *zap.Logger) *Store[T] {
	return &Store[T]{
		name:   name,
		loader: loader,
		logger: logger,
		byID:   make(map[string]int),
	}
}

// Name returns the collection name the store backs
func (s *Store[T]) Name() string {
	return s.name
}

// Load fetches the collection and replaces the store contents wholesale.
// On failure the previous contents remain untouched.
func (s *Store[T]) Load(ctx context.Context, token string) error {
	records, err := s.loader(ctx, token)
	if err != nil {
		s.logger.Warn("Store load failed, keeping previous contents",
			zap.String("store", s.name),
			zap.Error(err))
		return fmt.Errorf("load %s: %w", s.name, err)
	}

	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.EntityID()] = i
	}

	s.mu.Lock()
	s.records = records
	s.byID = index
	s.loaded = true
	s.mu.Unlock()

	s.logger.Debug("Store loaded",
		zap.String("store", s.name),
		zap.Int("count", len(records)))
	return nil
}

// Loaded reports whether at least one load has succeeded
func (s *Store[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// All returns a snapshot of the collection in upstream order
func (s *Store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the entity with the given id
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var zero T
	i, ok := s.byID[id]
	if !ok {
		return zero, false
	}
	return s.records[i], true
}

// Len returns the number of records currently held
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Replace swaps in the server's canonical version of one entity,
// preserving its position in the collection. The whole record is
// replaced, never merged, so the local copy cannot drift from server
// truth. Unknown entities are appended.
func (s *Store[T]) Replace(entity T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := entity.EntityID()
	if i, ok := s.byID[id]; ok {
		s.records[i] = entity
		return
	}
	s.records = append(s.records, entity)
	s.byID[id] = len(s.records) - 1
}

// ApplyLocalPatch optimistically rewrites one entity before server
// confirmation. The next Load or Replace overwrites the guess with server
// truth.
func (s *Store[T]) ApplyLocalPatch(id string, patch func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.records[i] = patch(s.records[i])
	return true
}

// Remove drops one entity from the collection, preserving the order of
// the rest. Used after the admin-only delete override.
func (s *Store[T]) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.records); j++ {
		s.byID[s.records[j].EntityID()] = j
	}
	return true
}
