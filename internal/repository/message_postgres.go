package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

// MessageModel is the messages table.
type MessageModel struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"not null;index"`
	UserID    string    `gorm:"not null"`
	Content   string    `gorm:"size:500;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (MessageModel) TableName() string {
	return "messages"
}

type pgMessage struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) MessageRepository {
	return &pgMessage{
		db: db,
	}
}

func (that *pgMessage) ListByGame(ctx context.Context, gameID string) ([]entity.ChatMessage, error) {
	id, err := parseGameID(gameID)
	if err != nil {
		return []entity.ChatMessage{}, nil
	}

	var models []MessageModel
	if err = that.db.WithContext(ctx).Where("game_id = ?", id).Order("created_at, id").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]entity.ChatMessage, 0, len(models))
	for _, model := range models {
		messages = append(messages, entity.ChatMessage{
			GameID:    gameID,
			UserID:    model.UserID,
			Content:   model.Content,
			Timestamp: model.CreatedAt.UTC(),
		})
	}

	return messages, nil
}

func (that *pgMessage) Append(ctx context.Context, gameID, userID, content string) (*entity.ChatMessage, error) {
	id, err := parseGameID(gameID)
	if err != nil {
		return nil, err
	}

	model := MessageModel{GameID: id, UserID: userID, Content: content}
	if err = that.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &entity.ChatMessage{
		GameID:    gameID,
		UserID:    userID,
		Content:   content,
		Timestamp: model.CreatedAt.UTC(),
	}, nil
}

// Migrate creates or updates the tables used by the postgres repositories.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&GameModel{}, &MoveModel{}, &MessageModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	return nil
}
