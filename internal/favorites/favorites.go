package favorites

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/metgallery/internal/storage"
)

// Key is the storage key holding the JSON array of favorite ids
const Key = "met_gallery_favorites_v1"

// Store is the persisted favorites set. Storage failures degrade to an
// empty set; the favorites view never fails because of them.
// Only one writer per storage backend is supported.
type Store struct {
	backend storage.Store
	key     string
	mu      sync.Mutex
}

func New(backend storage.Store) *Store {
	return &Store{
		backend: backend,
		key:     Key,
	}
}

// Has reports whether id is a favorite
func (s *Store) Has(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.read()[id]
	return ok
}

// Toggle adds id if absent and removes it if present, returning the new
// membership. When the change cannot be persisted nothing changes and the
// current membership is returned.
func (s *Store) Toggle(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.read()
	_, present := set[id]
	if present {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	if err := s.write(set); err != nil {
		slog.Warn("Unable to persist favorites", "id", id, "err", err)
		return present
	}
	return !present
}

// List returns every favorite id in ascending order
func (s *Store) List() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.read()
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) read() map[int]struct{} {
	set := make(map[int]struct{})
	if s.backend == nil {
		return set
	}

	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		slog.Warn("Favorites storage unavailable", "err", err)
		return set
	}
	if !ok || raw == "" {
		return set
	}

	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.Warn("Ignoring malformed favorites", "err", err)
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *Store) write(set map[int]struct{}) error {
	if s.backend == nil {
		return errors.New("no favorites storage configured")
	}

	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	return s.backend.Set(s.key, string(data))
}
