package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

// GameModel is the games table.
type GameModel struct {
	ID                 uint   `gorm:"primaryKey"`
	Name               string `gorm:"size:100;not null;default:''"`
	Player1ID          string `gorm:"not null"`
	Player2ID          string `gorm:"not null;default:''"`
	FirstRematchSentBy string `gorm:"not null;default:''"`
	RematchGameID      string `gorm:"not null;default:''"`
}

func (GameModel) TableName() string {
	return "games"
}

// MoveModel is one row of a game's move log; (GameID, Idx) is unique.
type MoveModel struct {
	ID     uint `gorm:"primaryKey"`
	GameID uint `gorm:"not null;uniqueIndex:idx_moves_game_idx"`
	Idx    int  `gorm:"not null;uniqueIndex:idx_moves_game_idx"`
	X      int  `gorm:"not null"`
	Y      int  `gorm:"not null"`
}

func (MoveModel) TableName() string {
	return "moves"
}

type pgGame struct {
	db *gorm.DB
}

func NewPostgresGameRepository(db *gorm.DB) GameRepository {
	return &pgGame{
		db: db,
	}
}

// parseGameID maps a textual id onto the serial key; ids that can't exist read as not found.
func parseGameID(id string) (uint, error) {
	value, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, apperror.ErrGameNotFound
	}

	return uint(value), nil
}

func (that *pgGame) Create(ctx context.Context, name, player1ID, player2ID string) (string, error) {
	model := GameModel{
		Name:      name,
		Player1ID: player1ID,
		Player2ID: player2ID,
	}

	if err := that.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return strconv.FormatUint(uint64(model.ID), 10), nil
}

func (that *pgGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	gameID, err := parseGameID(id)
	if err != nil {
		return nil, err
	}

	var model GameModel

	err = that.db.WithContext(ctx).First(&model, gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	moves, err := that.listMoves(ctx, that.db, gameID)
	if err != nil {
		return nil, err
	}

	game := entity.NewGame(id, model.Name, model.Player1ID, model.Player2ID)
	game.Moves = moves
	game.FirstRematchSentBy = model.FirstRematchSentBy
	game.RematchGameID = model.RematchGameID

	return game, nil
}

func (that *pgGame) ListMoves(ctx context.Context, id string) ([]entity.Move, error) {
	gameID, err := parseGameID(id)
	if err != nil {
		return nil, err
	}

	if err = that.exists(ctx, that.db, gameID); err != nil {
		return nil, err
	}

	return that.listMoves(ctx, that.db, gameID)
}

func (that *pgGame) BindPlayerTwo(ctx context.Context, id, userID string) error {
	gameID, err := parseGameID(id)
	if err != nil {
		return err
	}

	result := that.db.WithContext(ctx).
		Model(&GameModel{}).
		Where("id = ? AND player2_id = ''", gameID).
		Update("player2_id", userID)
	if result.Error != nil {
		return fmt.Errorf("failed to bind player two: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		return nil
	}

	if err = that.exists(ctx, that.db, gameID); err != nil {
		return err
	}

	return apperror.ErrGameAlreadyStarted
}

func (that *pgGame) AppendMove(ctx context.Context, id string, index int, move entity.Move) error {
	gameID, err := parseGameID(id)
	if err != nil {
		return err
	}

	err = that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := that.exists(ctx, tx, gameID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&MoveModel{}).Where("game_id = ?", gameID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count moves: %w", err)
		}

		if int(count) != index {
			return apperror.ErrMoveConflict
		}

		return tx.Create(&MoveModel{GameID: gameID, Idx: index, X: move.X, Y: move.Y}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.ErrMoveConflict
	}

	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

func (that *pgGame) SetRematchProposer(ctx context.Context, id, userID string) error {
	return that.updateColumn(ctx, id, "first_rematch_sent_by", userID)
}

func (that *pgGame) SetRematchSuccessor(ctx context.Context, id, successorID string) error {
	return that.updateColumn(ctx, id, "rematch_game_id", successorID)
}

func (that *pgGame) updateColumn(ctx context.Context, id, column, value string) error {
	gameID, err := parseGameID(id)
	if err != nil {
		return err
	}

	result := that.db.WithContext(ctx).Model(&GameModel{ID: gameID}).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *pgGame) exists(ctx context.Context, db *gorm.DB, gameID uint) error {
	var count int64
	if err := db.WithContext(ctx).Model(&GameModel{}).Where("id = ?", gameID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check game: %w", err)
	}

	if count == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}

func (that *pgGame) listMoves(ctx context.Context, db *gorm.DB, gameID uint) ([]entity.Move, error) {
	var models []MoveModel
	if err := db.WithContext(ctx).Where("game_id = ?", gameID).Order("idx").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	moves := make([]entity.Move, 0, len(models))
	for _, model := range models {
		moves = append(moves, entity.Move{X: model.X, Y: model.Y})
	}

	return moves, nil
}
