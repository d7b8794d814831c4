package server

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"prompt-party/internal/game"
)

// Store is the shared record store. Each update call is atomic at the
// granularity of one game record; the closure re-reads the latest
// state, mutates it in memory and the new value becomes visible to
// every reader at once. Revision increases on every write so callers
// holding a stale read can detect the race instead of clobbering it.
type Store struct {
	mu     sync.Mutex
	nextID int
	games  map[string]*game.Game
}

// ErrRevisionConflict is returned by UpdateGameAt when the record
// changed since the caller read it.
type revisionConflictError struct {
	expected, actual int64
}

func (e *revisionConflictError) Error() string {
	return fmt.Sprintf("game changed underneath you (revision %d, expected %d)", e.actual, e.expected)
}

func IsRevisionConflict(err error) bool {
	_, ok := err.(*revisionConflictError)
	return ok
}

func NewStore() *Store {
	return &Store{
		nextID: 1,
		games:  make(map[string]*game.Game),
	}
}

func (s *Store) CreateGame(creator string, cfg game.Config, mode game.Mode) *game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := game.New(creator, cfg)
	g.ID = fmt.Sprintf("game-%d", s.nextID)
	s.nextID++
	if mode != "" {
		g.Mode = mode
	}
	g.Revision = 1
	s.games[g.ID] = g
	return g
}

func (s *Store) GetGame(id string) (*game.Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	return g, ok
}

// UpdateGame applies the mutation atomically. A non-nil error from the
// closure aborts the write and the revision is left untouched; the
// closure must validate everything before mutating.
func (s *Store) UpdateGame(id string, update func(g *game.Game) error) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, &game.NotFoundError{Message: fmt.Sprintf("game %s not found", id)}
	}
	if err := update(g); err != nil {
		return nil, err
	}
	g.Revision++
	return g, nil
}

// UpdateGameAt is the compare-and-swap variant: the update only runs
// when the record still carries the revision the caller observed.
func (s *Store) UpdateGameAt(id string, revision int64, update func(g *game.Game) error) (*game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, &game.NotFoundError{Message: fmt.Sprintf("game %s not found", id)}
	}
	if g.Revision != revision {
		return nil, &revisionConflictError{expected: revision, actual: g.Revision}
	}
	if err := update(g); err != nil {
		return nil, err
	}
	g.Revision++
	return g, nil
}

func (s *Store) DeleteGame(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

type GameSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	Players   int       `json:"players"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) ListGameSummaries() []GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]GameSummary, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, GameSummary{
			ID:        g.ID,
			Status:    string(g.Status),
			Mode:      string(g.Mode),
			Players:   len(g.Players),
			CreatedAt: g.CreatedAt,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return gameSortKey(list[i].ID) < gameSortKey(list[j].ID)
	})
	return list
}

func gameSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
