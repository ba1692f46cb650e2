// Package registry is the single source of truth for live games. It
// hands out deep copies only and serializes mutation per game id, so
// two concurrent moves can never both commit against the same
// pre-move snapshot.
package registry

import (
	"fmt"
	"sync"

	"github.com/playgrid/tictactoe-arena/internal/apperror"
	"github.com/playgrid/tictactoe-arena/internal/entity"
)

// Registry stores every live game keyed by id. The outer lock guards
// the map itself; each entry carries its own lock so distinct game ids
// never contend.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*gameEntry
}

type gameEntry struct {
	mu      sync.Mutex
	game    *entity.Game
	removed bool
}

func New() *Registry {
	return &Registry{
		games: make(map[string]*gameEntry),
	}
}

// Create - inserts a new game. The id generator is collision
// resistant, but the uniqueness invariant is defended here anyway.
func (that *Registry) Create(game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.ID]; ok {
		return fmt.Errorf("%w: id %s", apperror.ErrGameAlreadyExists, game.ID)
	}

	that.games[game.ID] = &gameEntry{game: game.Clone()}

	return nil
}

// Get - returns a snapshot copy of the game.
func (that *Registry) Get(id string) (*entity.Game, error) {
	entry, err := that.lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	return entry.game.Clone(), nil
}

// List - returns snapshot copies of every live game, in no particular
// order.
func (that *Registry) List() []*entity.Game {
	that.mu.RLock()
	entries := make([]*gameEntry, 0, len(that.games))
	for _, entry := range that.games {
		entries = append(entries, entry)
	}
	that.mu.RUnlock()

	games := make([]*entity.Game, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !entry.removed {
			games = append(games, entry.game.Clone())
		}
		entry.mu.Unlock()
	}

	return games
}

// Mutate - applies fn to the latest committed state of the game and
// commits its result, all under the game's own lock. Concurrent calls
// for one id are linearized; fn always sees the state left by the
// previous committed mutation, never a superseded snapshot. fn gets a
// private clone, so abandoning it on error is safe. Returns a snapshot
// of the committed state.
func (that *Registry) Mutate(id string, fn func(game *entity.Game) (*entity.Game, error)) (*entity.Game, error) {
	entry, err := that.lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// The game may have been reaped between lookup and lock.
	if entry.removed {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	updated, err := fn(entry.game.Clone())
	if err != nil {
		return nil, err
	}

	entry.game = updated

	return updated.Clone(), nil
}

// RemoveIf - removes the game when pred holds for its latest committed
// state, using the same per-id exclusion as Mutate so a reap can never
// race a concurrent move. Returns the removed snapshot, or false when
// the game was absent or pred rejected it.
func (that *Registry) RemoveIf(id string, pred func(game *entity.Game) bool) (*entity.Game, bool) {
	entry, err := that.lookup(id)
	if err != nil {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.removed || !pred(entry.game) {
		return nil, false
	}

	entry.removed = true

	that.mu.Lock()
	delete(that.games, id)
	that.mu.Unlock()

	return entry.game.Clone(), true
}

// RemoveAll - administrative reset; clears every game. The map is
// swapped out first and entries are tombstoned after, so this never
// holds the map lock and an entry lock at the same time.
func (that *Registry) RemoveAll() {
	that.mu.Lock()
	removed := that.games
	that.games = make(map[string]*gameEntry)
	that.mu.Unlock()

	for _, entry := range removed {
		entry.mu.Lock()
		entry.removed = true
		entry.mu.Unlock()
	}
}

func (that *Registry) lookup(id string) (*gameEntry, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	entry, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrGameNotFound, id)
	}

	return entry, nil
}
