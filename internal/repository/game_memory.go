package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
	"github.com/rocketscienceinc/supertris-backend/internal/pkg"
)

type memoryGame struct {
	mu    sync.RWMutex
	games map[string]*entity.Game
}

// NewMemoryGameRepository keeps games in process memory; they are lost on restart.
func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]*entity.Game),
	}
}

func (that *memoryGame) Create(_ context.Context, name, player1ID, player2ID string) (string, error) {
	game := entity.NewGame(pkg.GenerateGameID(), name, player1ID, player2ID)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game

	return game.ID, nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	clone := *game
	clone.Moves = slices.Clone(game.Moves)

	return &clone, nil
}

func (that *memoryGame) ListMoves(_ context.Context, id string) ([]entity.Move, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return slices.Clone(game.Moves), nil
}

func (that *memoryGame) BindPlayerTwo(_ context.Context, id, userID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return apperror.ErrGameNotFound
	}

	if !game.IsDraft() {
		return apperror.ErrGameAlreadyStarted
	}

	game.Player2ID = userID

	return nil
}

func (that *memoryGame) AppendMove(_ context.Context, id string, index int, move entity.Move) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return apperror.ErrGameNotFound
	}

	if len(game.Moves) != index {
		return apperror.ErrMoveConflict
	}

	game.Moves = append(game.Moves, move)

	return nil
}

func (that *memoryGame) SetRematchProposer(_ context.Context, id, userID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return apperror.ErrGameNotFound
	}

	game.FirstRematchSentBy = userID

	return nil
}

func (that *memoryGame) SetRematchSuccessor(_ context.Context, id, successorID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return apperror.ErrGameNotFound
	}

	game.RematchGameID = successorID

	return nil
}
