// Package aggregate holds live construction site state behind an optimistic
// generation check.
package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	apperrors "github.com/wasmColonies/core/internal/platform/errors"
	"github.com/wasmColonies/core/internal/services/shard/domain/construction"
	"github.com/wasmColonies/core/internal/services/shard/domain/event"
)

// ErrConflict matches any generation mismatch via errors.Is.
var ErrConflict = apperrors.New(apperrors.CodeAggregateConflict, "aggregate generation conflict")

// Store maps aggregate ids to their current state. It is safe for concurrent
// use; applies to one aggregate are serialized.
type Store struct {
	mu    sync.RWMutex
	sites map[string]construction.State
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sites: make(map[string]construction.State)}
}

// Load returns the state of id, or its initial state if nothing has been
// applied yet.
func (s *Store) Load(id string) construction.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.sites[id]; ok {
		return state
	}
	return construction.New(id)
}

// Apply folds evt into id's state if its generation still equals
// expectedGeneration. On mismatch nothing changes and the error matches
// ErrConflict.
func (s *Store) Apply(id string, expectedGeneration uint64, evt event.ColonyEvent) (construction.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sites[id]
	if !ok {
		current = construction.New(id)
	}
	if current.Generation != expectedGeneration {
		return current, apperrors.WithMetadata(apperrors.CodeAggregateConflict,
			fmt.Sprintf("aggregate %s is at generation %d, expected %d", id, current.Generation, expectedGeneration),
			map[string]string{
				"aggregate_id": id,
				"generation":   strconv.FormatUint(current.Generation, 10),
				"expected":     strconv.FormatUint(expectedGeneration, 10),
			})
	}
	next := construction.Fold(current, evt)
	s.sites[id] = next
	return next, nil
}

// IDs returns the ids of every aggregate with applied events, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sites))
	for id := range s.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
