package entity

import "time"

const MaxMessageLength = 500

// ChatMessage is a persisted chat line of a game, ordered by Timestamp.
type ChatMessage struct {
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
