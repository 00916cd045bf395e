package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/supertris-backend/internal/apperror"
	"github.com/rocketscienceinc/supertris-backend/internal/entity"
	"github.com/rocketscienceinc/supertris-backend/internal/protocol"
	"github.com/rocketscienceinc/supertris-backend/internal/session"
	"github.com/rocketscienceinc/supertris-backend/internal/tictactoe"
)

type gameRepo interface {
	Create(ctx context.Context, name, player1ID, player2ID string) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	ListMoves(ctx context.Context, id string) ([]entity.Move, error)
	BindPlayerTwo(ctx context.Context, id, userID string) error
	AppendMove(ctx context.Context, id string, index int, move entity.Move) error
	SetRematchProposer(ctx context.Context, id, userID string) error
	SetRematchSuccessor(ctx context.Context, id, successorID string) error
}

type messageRepo interface {
	ListByGame(ctx context.Context, gameID string) ([]entity.ChatMessage, error)
	Append(ctx context.Context, gameID, userID, content string) (*entity.ChatMessage, error)
}

type nameResolver interface {
	Name(ctx context.Context, userID string) string
}

// GameView is a game snapshot as seen by one user.
type GameView struct {
	Game          *entity.Game  `json:"game"`
	Completed     bool          `json:"completed"`
	Winner        string        `json:"winner,omitempty"`
	PossibleMoves []entity.Move `json:"possible_moves"`
}

// GameCoordinator applies game commands and pushes the resulting state to every
// connection registered for the game. Every mutation of a game runs under that
// game's lock, from the storage write to the broadcast that follows it.
type GameCoordinator struct {
	logger *slog.Logger

	games    gameRepo
	messages messageRepo
	names    nameResolver
	registry *session.Registry
	locks    *gameLocks
}

func NewGameCoordinator(
	logger *slog.Logger,
	games gameRepo,
	messages messageRepo,
	names nameResolver,
	registry *session.Registry,
) *GameCoordinator {
	return &GameCoordinator{
		logger: logger,

		games:    games,
		messages: messages,
		names:    names,
		registry: registry,
		locks:    newGameLocks(),
	}
}

// CreateGame creates a draft game owned by userID.
func (that *GameCoordinator) CreateGame(ctx context.Context, userID, name string) (string, error) {
	log := that.logger.With("method", "CreateGame", "userID", userID)

	gameID, err := that.games.Create(ctx, name, userID, "")
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	log.Info("game created", "gameID", gameID)

	return gameID, nil
}

// GetGame returns the current snapshot of a game with the moves userID may play next.
func (that *GameCoordinator) GetGame(ctx context.Context, gameID, userID string) (*GameView, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	possible := tictactoe.PossibleMoves(game, userID)
	if possible == nil {
		possible = []entity.Move{}
	}

	return &GameView{
		Game:          game,
		Completed:     tictactoe.IsCompleted(game.Moves),
		Winner:        winnerID(game),
		PossibleMoves: possible,
	}, nil
}

// Attach subscribes conn to a game. Players may always attach; anyone else only
// while the game is a draft. Rejected connections get a closing frame and are closed.
func (that *GameCoordinator) Attach(ctx context.Context, gameID string, conn session.Connection) (bool, error) {
	log := that.logger.With("method", "Attach", "gameID", gameID, "userID", conn.UserID(), "connID", conn.ID())

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.games.GetByID(ctx, gameID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		log.Debug("rejected", "reason", err)
		that.reject(gameID, conn, protocol.ReasonGameNotFound)

		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get game: %w", err)
	}

	if !game.IsDraft() && !game.IsPlayer(conn.UserID()) {
		log.Debug("rejected", "reason", apperror.ErrGameAlreadyStarted)
		that.reject(gameID, conn, protocol.ReasonGameAlreadyStarted)

		return false, nil
	}

	history, err := that.messages.ListByGame(ctx, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to list messages: %w", err)
	}

	that.registry.Register(gameID, conn)

	if !that.send(gameID, conn, stateOf(game)) {
		return false, nil
	}

	that.broadcast(gameID, that.presenceOf(game))

	that.send(gameID, conn, protocol.ChatMessages{Messages: that.withNames(ctx, history)})

	log.Info("connection attached")

	return true, nil
}

// Detach removes a connection from a game and tells the rest who is still there.
func (that *GameCoordinator) Detach(ctx context.Context, gameID, connID string) error {
	log := that.logger.With("method", "Detach", "gameID", gameID, "connID", connID)

	that.registry.Deregister(gameID, connID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.games.GetByID(ctx, gameID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	that.broadcast(gameID, that.presenceOf(game))

	log.Info("connection detached")

	return nil
}

// JoinGame binds userID as the second player of a draft game and evicts every
// connection that belongs to neither player.
func (that *GameCoordinator) JoinGame(ctx context.Context, gameID, userID string) (bool, error) {
	log := that.logger.With("method", "JoinGame", "gameID", gameID, "userID", userID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, ok, err := that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	if !game.IsDraft() {
		log.Debug("rejected", "reason", apperror.ErrGameAlreadyStarted)
		return false, nil
	}

	if game.Player1ID == userID {
		log.Debug("rejected", "reason", apperror.ErrSelfPlay)
		return false, nil
	}

	err = that.games.BindPlayerTwo(ctx, gameID, userID)
	if errors.Is(err, apperror.ErrGameAlreadyStarted) || errors.Is(err, apperror.ErrGameNotFound) {
		log.Debug("rejected", "reason", err)
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to bind player two: %w", err)
	}

	game, ok, err = that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	for _, conn := range that.registry.ConnectionsOf(gameID) {
		if !game.IsPlayer(conn.UserID()) {
			log.Debug("evicting connection", "connID", conn.ID(), "connUserID", conn.UserID())
			that.reject(gameID, conn, protocol.ReasonGameStartedWithOthers)
		}
	}

	that.broadcast(gameID, stateOf(game))
	that.broadcast(gameID, that.presenceOf(game))

	log.Info("player two joined")

	return true, nil
}

// MakeMove plays (x, y) for userID when the rules allow it.
func (that *GameCoordinator) MakeMove(ctx context.Context, gameID, userID string, x, y int) (bool, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "userID", userID, "x", x, "y", y)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, ok, err := that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	if game.IsDraft() {
		log.Debug("rejected", "reason", apperror.ErrGameIsDraft)
		return false, nil
	}

	if !tictactoe.CanMakeMove(game, userID, x, y) {
		log.Debug("rejected", "reason", apperror.ErrIllegalMove)
		return false, nil
	}

	err = that.games.AppendMove(ctx, gameID, len(game.Moves), entity.Move{X: x, Y: y})
	if errors.Is(err, apperror.ErrMoveConflict) || errors.Is(err, apperror.ErrGameNotFound) {
		log.Debug("rejected", "reason", err)
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to append move: %w", err)
	}

	game, ok, err = that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	that.broadcast(gameID, stateOf(game))

	if tictactoe.IsCompleted(game.Moves) {
		log.Info("game completed", "winner", winnerID(game))
	}

	return true, nil
}

// Rematch records a rematch proposal, or accepts the opponent's proposal by
// creating the successor game with the players swapped. Once a successor exists
// every further call points the connections at it again.
func (that *GameCoordinator) Rematch(ctx context.Context, gameID, userID string) (bool, error) {
	log := that.logger.With("method", "Rematch", "gameID", gameID, "userID", userID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, ok, err := that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	if game.IsDraft() {
		log.Debug("rejected", "reason", apperror.ErrGameIsDraft)
		return false, nil
	}

	if !game.IsPlayer(userID) {
		log.Debug("rejected", "reason", apperror.ErrNotAPlayer)
		return false, nil
	}

	if game.HasSuccessor() {
		that.broadcast(gameID, protocol.NewGame{GameID: game.RematchGameID})
		return true, nil
	}

	if !game.HasRematchProposal() {
		if err = that.games.SetRematchProposer(ctx, gameID, userID); err != nil {
			return false, fmt.Errorf("failed to set rematch proposer: %w", err)
		}

		game, ok, err = that.load(ctx, log, gameID)
		if !ok {
			return false, err
		}

		that.broadcast(gameID, stateOf(game))

		log.Info("rematch proposed")

		return true, nil
	}

	if game.FirstRematchSentBy == userID {
		log.Debug("rejected", "reason", apperror.ErrRematchPending)
		return false, nil
	}

	successorID, err := that.games.Create(ctx, game.Name, game.Player2ID, game.Player1ID)
	if err != nil {
		return false, fmt.Errorf("failed to create rematch game: %w", err)
	}

	if err = that.games.SetRematchSuccessor(ctx, gameID, successorID); err != nil {
		return false, fmt.Errorf("failed to link rematch game: %w", err)
	}

	that.broadcast(gameID, protocol.NewGame{GameID: successorID})

	log.Info("rematch accepted", "successorID", successorID)

	return true, nil
}

// SendMessage stores a chat line and relays it. Anyone may talk in a draft;
// after that only the players can.
func (that *GameCoordinator) SendMessage(ctx context.Context, gameID, userID, content string) (bool, error) {
	log := that.logger.With("method", "SendMessage", "gameID", gameID, "userID", userID)

	unlock := that.locks.lock(gameID)
	defer unlock()

	game, ok, err := that.load(ctx, log, gameID)
	if !ok {
		return false, err
	}

	if !game.IsDraft() && !game.IsPlayer(userID) {
		log.Debug("rejected", "reason", apperror.ErrNotAPlayer)
		return false, nil
	}

	message, err := that.messages.Append(ctx, gameID, userID, content)
	if err != nil {
		return false, fmt.Errorf("failed to append message: %w", err)
	}

	that.broadcast(gameID, protocol.ChatMessage{Message: protocol.NamedChatMessage{
		ChatMessage: *message,
		Name:        that.names.Name(ctx, userID),
	}})

	return true, nil
}

// Heartbeat pushes a heartbeat to every game that has at least one connection.
func (that *GameCoordinator) Heartbeat() {
	log := that.logger.With("method", "Heartbeat")

	frame, err := protocol.Encode(protocol.Heartbeat{})
	if err != nil {
		log.Error("failed to encode heartbeat", "error", err)
		return
	}

	gameIDs := that.registry.GameIDs()
	for _, gameID := range gameIDs {
		that.pushAll(gameID, frame)
	}

	log.Debug("heartbeat sent", "games", len(gameIDs))
}

// Snapshot reports the number of live connections per game.
func (that *GameCoordinator) Snapshot() map[string]int {
	return that.registry.Snapshot()
}

// load reads a game, turning a missing game into a rejection rather than an error.
func (that *GameCoordinator) load(ctx context.Context, log *slog.Logger, gameID string) (*entity.Game, bool, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if errors.Is(err, apperror.ErrGameNotFound) {
		log.Debug("rejected", "reason", err)
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get game: %w", err)
	}

	return game, true, nil
}

func (that *GameCoordinator) broadcast(gameID string, msg protocol.Message) {
	frame, err := protocol.Encode(msg)
	if err != nil {
		that.logger.With("method", "broadcast", "gameID", gameID).Error("failed to encode message", "error", err)
		return
	}

	that.pushAll(gameID, frame)
}

func (that *GameCoordinator) pushAll(gameID string, frame []byte) {
	for _, conn := range that.registry.ConnectionsOf(gameID) {
		that.push(gameID, conn, frame)
	}
}

// push delivers a frame to one connection; a connection that can't take it is dropped.
func (that *GameCoordinator) push(gameID string, conn session.Connection, frame []byte) bool {
	if err := conn.Push(frame); err != nil {
		that.logger.With("method", "push", "gameID", gameID, "connID", conn.ID()).
			Warn("dropping connection", "error", err)

		that.registry.Deregister(gameID, conn.ID())
		conn.Close()

		return false
	}

	return true
}

func (that *GameCoordinator) send(gameID string, conn session.Connection, msg protocol.Message) bool {
	frame, err := protocol.Encode(msg)
	if err != nil {
		that.logger.With("method", "send", "gameID", gameID).Error("failed to encode message", "error", err)
		return false
	}

	return that.push(gameID, conn, frame)
}

// reject tells conn why it is being dropped, then drops it.
func (that *GameCoordinator) reject(gameID string, conn session.Connection, reason protocol.CloseReason) {
	if frame, err := protocol.Encode(protocol.Closing{Reason: reason}); err == nil {
		_ = conn.Push(frame)
	}

	that.registry.Deregister(gameID, conn.ID())
	conn.Close()
}

func (that *GameCoordinator) presenceOf(game *entity.Game) protocol.PlayerPresence {
	var presence protocol.PlayerPresence

	for _, conn := range that.registry.ConnectionsOf(game.ID) {
		switch userID := conn.UserID(); {
		case userID == game.Player1ID:
			presence.Player1Present = true
		case !game.IsDraft() && userID == game.Player2ID:
			presence.Player2Present = true
		}
	}

	return presence
}

func (that *GameCoordinator) withNames(ctx context.Context, history []entity.ChatMessage) []protocol.NamedChatMessage {
	named := make([]protocol.NamedChatMessage, 0, len(history))
	for _, message := range history {
		named = append(named, protocol.NamedChatMessage{
			ChatMessage: message,
			Name:        that.names.Name(ctx, message.UserID),
		})
	}

	return named
}

func stateOf(game *entity.Game) protocol.GameState {
	return protocol.GameState{
		Game:      game,
		Completed: tictactoe.IsCompleted(game.Moves),
		Winner:    winnerID(game),
	}
}

// winnerID maps the mega-board winner to a player id, "" while nobody has won.
func winnerID(game *entity.Game) string {
	switch tictactoe.Winner(game.Moves) {
	case tictactoe.X:
		return game.Player1ID
	case tictactoe.O:
		return game.Player2ID
	default:
		return ""
	}
}
