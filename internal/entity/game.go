package entity

const (
	BoardSize = 9
	MaxMoves  = BoardSize * BoardSize
)

// Move is a single placed mark in global board coordinates, 0 <= X, Y <= 8.
type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Game is the authoritative record of a match. A game without Player2ID is a draft.
type Game struct {
	ID                 string `json:"id"`
	Name               string `json:"name,omitempty"`
	Player1ID          string `json:"player1_id"`
	Player2ID          string `json:"player2_id,omitempty"`
	Moves              []Move `json:"moves"`
	FirstRematchSentBy string `json:"first_rematch_sent_by,omitempty"`
	RematchGameID      string `json:"rematch_game_id,omitempty"`
}

func NewGame(id, name, player1ID, player2ID string) *Game {
	return &Game{
		ID:        id,
		Name:      name,
		Player1ID: player1ID,
		Player2ID: player2ID,
		Moves:     []Move{},
	}
}

func (that *Game) IsDraft() bool {
	return that.Player2ID == ""
}

func (that *Game) IsPlayer(userID string) bool {
	if userID == "" {
		return false
	}

	return userID == that.Player1ID || userID == that.Player2ID
}

// Opponent returns the other player's id, or "" when userID is not a player.
func (that *Game) Opponent(userID string) string {
	switch userID {
	case "":
		return ""
	case that.Player1ID:
		return that.Player2ID
	case that.Player2ID:
		return that.Player1ID
	default:
		return ""
	}
}

// NextPlayerID is the id of the player whose turn it is; player1 moves on even indices.
func (that *Game) NextPlayerID() string {
	if len(that.Moves)%2 == 0 {
		return that.Player1ID
	}

	return that.Player2ID
}

func (that *Game) HasRematchProposal() bool {
	return that.FirstRematchSentBy != ""
}

func (that *Game) HasSuccessor() bool {
	return that.RematchGameID != ""
}

func (that *Game) Occupied(x, y int) bool {
	for _, move := range that.Moves {
		if move.X == x && move.Y == y {
			return true
		}
	}

	return false
}
