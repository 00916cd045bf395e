package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

type memoryMessage struct {
	mu       sync.RWMutex
	messages map[string][]entity.ChatMessage
	now      func() time.Time
}

func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessage{
		messages: make(map[string][]entity.ChatMessage),
		now:      time.Now,
	}
}

func (that *memoryMessage) ListByGame(_ context.Context, gameID string) ([]entity.ChatMessage, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	messages := slices.Clone(that.messages[gameID])
	if messages == nil {
		messages = []entity.ChatMessage{}
	}

	return messages, nil
}

func (that *memoryMessage) Append(_ context.Context, gameID, userID, content string) (*entity.ChatMessage, error) {
	message := entity.ChatMessage{
		GameID:    gameID,
		UserID:    userID,
		Content:   content,
		Timestamp: that.now().UTC(),
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages[gameID] = append(that.messages[gameID], message)

	return &message, nil
}
