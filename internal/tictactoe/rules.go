// Package tictactoe implements the rules of Super Tris (Ultimate Tic-Tac-Toe):
// a 3x3 mega board whose cells are 3x3 mini boards. A move at local cell (x, y)
// of a mini board sends the opponent to mini board (x, y); when that board is
// already won or full the opponent may play in any open mini board. Three won
// mini boards in a line win the game.
//
// All functions are pure and assume coordinates were validated upstream.
package tictactoe

import (
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
)

type Mark string

const (
	Empty Mark = ""
	X     Mark = "X" // player1
	O     Mark = "O" // player2
)

const miniSize = 3

// WinCombos are the eight lines of a 3x3 grid, indexed y*3+x.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// MarkOf returns the mark placed by the move at the given index of the sequence.
func MarkOf(index int) Mark {
	if index%2 == 0 {
		return X
	}
	return O
}

// TurnOf returns the mark that moves next.
func TurnOf(moves []entity.Move) Mark {
	return MarkOf(len(moves))
}

// PlayerMark returns the mark of userID in game, or Empty for non-players.
func PlayerMark(game *entity.Game, userID string) Mark {
	switch {
	case userID == "":
		return Empty
	case userID == game.Player1ID:
		return X
	case userID == game.Player2ID:
		return O
	default:
		return Empty
	}
}

// PossibleMoves lists the cells userID may play right now.
func PossibleMoves(game *entity.Game, userID string) []entity.Move {
	if game.IsDraft() || game.Player1ID == game.Player2ID {
		return nil
	}

	mark := PlayerMark(game, userID)
	if mark == Empty || mark != TurnOf(game.Moves) {
		return nil
	}

	b := newBoard(game.Moves)
	if b.completed() {
		return nil
	}

	moves := make([]entity.Move, 0, entity.MaxMoves-len(game.Moves))
	for _, mini := range b.allowedMiniBoards(game.Moves) {
		for lx := 0; lx < miniSize; lx++ {
			for ly := 0; ly < miniSize; ly++ {
				x, y := mini.X*miniSize+lx, mini.Y*miniSize+ly
				if b[x][y] == Empty {
					moves = append(moves, entity.Move{X: x, Y: y})
				}
			}
		}
	}

	return moves
}

func CanMakeMove(game *entity.Game, userID string, x, y int) bool {
	for _, move := range PossibleMoves(game, userID) {
		if move.X == x && move.Y == y {
			return true
		}
	}

	return false
}

// IsCompleted reports whether the mega board is won or every mini board is completed.
func IsCompleted(moves []entity.Move) bool {
	return newBoard(moves).completed()
}

// Winner returns the mark that owns three collinear mini boards, or Empty.
func Winner(moves []entity.Move) Mark {
	return newBoard(moves).winner()
}

func MiniBoardWinner(moves []entity.Move, miniX, miniY int) Mark {
	return newBoard(moves).miniWinner(miniX, miniY)
}

func IsMiniBoardCompleted(moves []entity.Move, miniX, miniY int) bool {
	return newBoard(moves).miniCompleted(miniX, miniY)
}

// board is the 9x9 grid indexed [x][y].
type board [entity.BoardSize][entity.BoardSize]Mark

func newBoard(moves []entity.Move) *board {
	var b board
	for i, move := range moves {
		b[move.X][move.Y] = MarkOf(i)
	}

	return &b
}

// local returns cell idx (y*3+x) of mini board (miniX, miniY).
func (b *board) local(miniX, miniY, idx int) Mark {
	return b[miniX*miniSize+idx%miniSize][miniY*miniSize+idx/miniSize]
}

func (b *board) miniWinner(miniX, miniY int) Mark {
	for _, player := range []Mark{X, O} {
		for _, combo := range WinCombos {
			if b.local(miniX, miniY, combo[0]) == player &&
				b.local(miniX, miniY, combo[1]) == player &&
				b.local(miniX, miniY, combo[2]) == player {
				return player
			}
		}
	}

	return Empty
}

func (b *board) miniCompleted(miniX, miniY int) bool {
	if b.miniWinner(miniX, miniY) != Empty {
		return true
	}

	for idx := 0; idx < miniSize*miniSize; idx++ {
		if b.local(miniX, miniY, idx) == Empty {
			return false
		}
	}

	return true
}

func (b *board) winner() Mark {
	var minis [miniSize * miniSize]Mark
	for idx := range minis {
		minis[idx] = b.miniWinner(idx%miniSize, idx/miniSize)
	}

	for _, player := range []Mark{X, O} {
		for _, combo := range WinCombos {
			if minis[combo[0]] == player && minis[combo[1]] == player && minis[combo[2]] == player {
				return player
			}
		}
	}

	return Empty
}

func (b *board) completed() bool {
	if b.winner() != Empty {
		return true
	}

	for miniX := 0; miniX < miniSize; miniX++ {
		for miniY := 0; miniY < miniSize; miniY++ {
			if !b.miniCompleted(miniX, miniY) {
				return false
			}
		}
	}

	return true
}

// allowedMiniBoards returns the mini boards the next move may target.
func (b *board) allowedMiniBoards(moves []entity.Move) []entity.Move {
	if len(moves) > 0 {
		last := moves[len(moves)-1]
		required := entity.Move{X: last.X % miniSize, Y: last.Y % miniSize}
		if !b.miniCompleted(required.X, required.Y) {
			return []entity.Move{required}
		}
	}

	allowed := make([]entity.Move, 0, miniSize*miniSize)
	for miniX := 0; miniX < miniSize; miniX++ {
		for miniY := 0; miniY < miniSize; miniY++ {
			if len(moves) == 0 || !b.miniCompleted(miniX, miniY) {
				allowed = append(allowed, entity.Move{X: miniX, Y: miniY})
			}
		}
	}

	return allowed
}
