package testing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// Store operation names accepted by [MemoryStore.FailOn], [MemoryStore.Hook] and [MemoryStore.Calls].
const (
	OpList   = "list"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// MemoryStore is an in-memory [models.CollectionStore] with the same ordering and owner scoping as the
// SQLite repository, plus injectable failures.
type MemoryStore struct {
	mu       sync.Mutex
	songs    map[string]models.Song
	failures map[string]error
	hooks    map[string]func()
	calls    map[string]int
}

// NewMemoryStore creates a store holding songs.
func NewMemoryStore(songs ...models.Song) *MemoryStore {
	s := &MemoryStore{
		songs:    make(map[string]models.Song),
		failures: make(map[string]error),
		hooks:    make(map[string]func()),
		calls:    make(map[string]int),
	}
	for _, song := range songs {
		s.songs[song.ID] = song.Clone()
	}
	return s
}

// FailOn makes op fail with err wrapped around [shared.ErrStore]. A nil err clears the failure.
func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Hook runs fn at the start of every op call, before the store lock is taken. Tests use it to block a call.
func (s *MemoryStore) Hook(op string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[op] = fn
}

// Calls reports how many times op was invoked.
func (s *MemoryStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// All returns every stored song regardless of owner.
func (s *MemoryStore) All() []models.Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Song, 0, len(s.songs))
	for _, song := range s.songs {
		out = append(out, song.Clone())
	}
	sortSongs(out)
	return out
}

func (s *MemoryStore) begin(op string) error {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hooks[op]
	err := s.failures[op]
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrStore, err)
	}
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, owner string) ([]models.Song, error) {
	if err := s.begin(OpList); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Song{}
	for _, song := range s.songs {
		if song.UserID == owner {
			out = append(out, song.Clone())
		}
	}
	sortSongs(out)
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, song models.Song) error {
	if err := s.begin(OpInsert); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.songs[song.ID]; exists {
		return fmt.Errorf("%w: song %s", shared.ErrConflict, song.ID)
	}
	s.songs[song.ID] = song.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, song models.Song) error {
	if err := s.begin(OpUpdate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.songs[song.ID]
	if !ok || existing.UserID != song.UserID {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, song.ID)
	}
	song.CreatedAt = existing.CreatedAt
	s.songs[song.ID] = song.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id, owner string) error {
	if err := s.begin(OpDelete); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.songs[id]; ok && existing.UserID == owner {
		delete(s.songs, id)
	}
	return nil
}

func sortSongs(songs []models.Song) {
	sort.SliceStable(songs, func(i, j int) bool {
		if !songs[i].UpdatedAt.Equal(songs[j].UpdatedAt) {
			return songs[i].UpdatedAt.After(songs[j].UpdatedAt)
		}
		return songs[i].ID < songs[j].ID
	})
}
