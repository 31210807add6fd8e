package repository

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-lobby/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lobby/internal/entity"
)

// GameRegistry keeps every game of the process lifetime. Games are never evicted;
// finished ones are archived to redis by the coordinator.
type GameRegistry struct {
	mu    sync.RWMutex
	games map[string]*entity.Game
	order []string
	newID func() string
}

func NewGameRegistry() *GameRegistry {
	return &GameRegistry{
		games: make(map[string]*entity.Game),
		newID: uuid.NewString,
	}
}

// GetOrCreate returns the game with id, storing an empty one without participants if absent.
func (that *GameRegistry) GetOrCreate(id string) *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	if game, ok := that.games[id]; ok {
		return game
	}

	game := entity.NewGame(id)
	that.store(game)

	return game
}

func (that *GameRegistry) GetByID(id string) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("game %q: %w", id, apperror.ErrGameNotFound)
	}

	return game, nil
}

// Create starts a game between playerA and playerB under a fresh id. playerA moves first.
func (that *GameRegistry) Create(playerA, playerB *entity.UserIdentity) *entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	game := entity.NewGame(that.newID())
	game.PlayerA = playerA
	game.PlayerB = playerB
	game.NextTurn = playerA.ID

	that.store(game)

	return game
}

// FindActiveGameForUser returns the most recently created game userID takes part in,
// whatever its status.
func (that *GameRegistry) FindActiveGameForUser(userID string) (*entity.Game, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for i := len(that.order) - 1; i >= 0; i-- {
		if game := that.games[that.order[i]]; game.HasPlayer(userID) {
			return game, true
		}
	}

	return nil, false
}

func (that *GameRegistry) store(game *entity.Game) {
	that.games[game.ID] = game
	that.order = append(that.order, game.ID)
}
