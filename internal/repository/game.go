package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

const (
	gameSeqKey     = "game:seq"
	maxTxRetries   = 5
	gameKeyPrefix  = "game:"
	movesKeySuffix = ":moves"
)

// GameRepository stores games and their move logs.
type GameRepository interface {
	Create(ctx context.Context, name, player1ID, player2ID string) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	ListMoves(ctx context.Context, id string) ([]entity.Move, error)
	BindPlayerTwo(ctx context.Context, id, userID string) error
	AppendMove(ctx context.Context, id string, index int, move entity.Move) error
	SetRematchProposer(ctx context.Context, id, userID string) error
	SetRematchSuccessor(ctx context.Context, id, successorID string) error
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

func gameKey(id string) string {
	return gameKeyPrefix + id
}

func movesKey(id string) string {
	return gameKeyPrefix + id + movesKeySuffix
}

// gameRecord is the game document without its moves; moves live in their own list.
type gameRecord struct {
	ID                 string `json:"id"`
	Name               string `json:"name,omitempty"`
	Player1ID          string `json:"player1_id"`
	Player2ID          string `json:"player2_id,omitempty"`
	FirstRematchSentBy string `json:"first_rematch_sent_by,omitempty"`
	RematchGameID      string `json:"rematch_game_id,omitempty"`
}

func (that *dbGame) Create(ctx context.Context, name, player1ID, player2ID string) (string, error) {
	seq, err := that.client.Incr(ctx, gameSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate game id: %w", err)
	}

	record := gameRecord{
		ID:        strconv.FormatInt(seq, 10),
		Name:      name,
		Player1ID: player1ID,
		Player2ID: player2ID,
	}

	gameJSON, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(record.ID), gameJSON, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to set game: %w", err)
	}

	return record.ID, nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	record, err := readRecord(ctx, that.client, id)
	if err != nil {
		return nil, err
	}

	moves, err := readMoves(ctx, that.client, id)
	if err != nil {
		return nil, err
	}

	game := entity.NewGame(record.ID, record.Name, record.Player1ID, record.Player2ID)
	game.Moves = moves
	game.FirstRematchSentBy = record.FirstRematchSentBy
	game.RematchGameID = record.RematchGameID

	return game, nil
}

func (that *dbGame) ListMoves(ctx context.Context, id string) ([]entity.Move, error) {
	exists, err := that.client.Exists(ctx, gameKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check game: %w", err)
	}

	if exists == 0 {
		return nil, apperror.ErrGameNotFound
	}

	return readMoves(ctx, that.client, id)
}

func (that *dbGame) BindPlayerTwo(ctx context.Context, id, userID string) error {
	return that.update(ctx, id, func(record *gameRecord) error {
		if record.Player2ID != "" {
			return apperror.ErrGameAlreadyStarted
		}

		record.Player2ID = userID

		return nil
	})
}

// AppendMove pushes move as the index-th entry of the log, failing with
// ErrMoveConflict when the log no longer has exactly index entries.
func (that *dbGame) AppendMove(ctx context.Context, id string, index int, move entity.Move) error {
	moveJSON, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("failed to marshal move: %w", err)
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, gameKey(id)).Result()
		if err != nil {
			return fmt.Errorf("failed to check game: %w", err)
		}

		if exists == 0 {
			return apperror.ErrGameNotFound
		}

		length, err := tx.LLen(ctx, movesKey(id)).Result()
		if err != nil {
			return fmt.Errorf("failed to count moves: %w", err)
		}

		if int(length) != index {
			return apperror.ErrMoveConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, movesKey(id), moveJSON)
			return nil
		})

		return err
	}

	err = that.client.Watch(ctx, txf, gameKey(id), movesKey(id))
	if errors.Is(err, redis.TxFailedErr) {
		return apperror.ErrMoveConflict
	}

	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

func (that *dbGame) SetRematchProposer(ctx context.Context, id, userID string) error {
	return that.update(ctx, id, func(record *gameRecord) error {
		record.FirstRematchSentBy = userID
		return nil
	})
}

func (that *dbGame) SetRematchSuccessor(ctx context.Context, id, successorID string) error {
	return that.update(ctx, id, func(record *gameRecord) error {
		record.RematchGameID = successorID
		return nil
	})
}

// update applies fn to the stored record under WATCH and retries when another writer got in first.
func (that *dbGame) update(ctx context.Context, id string, fn func(record *gameRecord) error) error {
	key := gameKey(id)

	txf := func(tx *redis.Tx) error {
		record, err := readRecord(ctx, tx, id)
		if err != nil {
			return err
		}

		if err = fn(record); err != nil {
			return err
		}

		gameJSON, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, 0)
			return nil
		})

		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to update game: %w", err)
		}

		return nil
	}

	return fmt.Errorf("failed to update game %s: %w", id, redis.TxFailedErr)
}

func readRecord(ctx context.Context, client redis.Cmdable, id string) (*gameRecord, error) {
	response, err := client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var record gameRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &record, nil
}

func readMoves(ctx context.Context, client redis.Cmdable, id string) ([]entity.Move, error) {
	raw, err := client.LRange(ctx, movesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	moves := make([]entity.Move, 0, len(raw))
	for _, item := range raw {
		var move entity.Move
		if err = json.Unmarshal([]byte(item), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}

		moves = append(moves, move)
	}

	return moves, nil
}
