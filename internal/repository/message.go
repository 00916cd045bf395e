package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

// MessageRepository stores the chat log of each game in send order.
type MessageRepository interface {
	ListByGame(ctx context.Context, gameID string) ([]entity.ChatMessage, error)
	Append(ctx context.Context, gameID, userID, content string) (*entity.ChatMessage, error)
}

type dbMessage struct {
	client *redis.Client
	now    func() time.Time
}

func NewMessageRepository(client *redis.Client) MessageRepository {
	return &dbMessage{
		client: client,
		now:    time.Now,
	}
}

func messagesKey(gameID string) string {
	return gameKeyPrefix + gameID + ":messages"
}

func (that *dbMessage) ListByGame(ctx context.Context, gameID string) ([]entity.ChatMessage, error) {
	raw, err := that.client.LRange(ctx, messagesKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]entity.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var message entity.ChatMessage
		if err = json.Unmarshal([]byte(item), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (that *dbMessage) Append(ctx context.Context, gameID, userID, content string) (*entity.ChatMessage, error) {
	message := &entity.ChatMessage{
		GameID:    gameID,
		UserID:    userID,
		Content:   content,
		Timestamp: that.now().UTC(),
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = that.client.RPush(ctx, messagesKey(gameID), messageJSON).Err(); err != nil {
		return nil, fmt.Errorf("failed to push message: %w", err)
	}

	return message, nil
}
