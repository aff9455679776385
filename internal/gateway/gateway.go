// Package gateway is the protocol layer between raw WebSocket frames and
// the session engine: it validates message shape, dispatches to the engine
// under a per-lobby lock, and pushes the recomputed GameState to every
// connection in the affected lobby.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hilo-games/hilo-backend/internal/engine"
	"github.com/hilo-games/hilo-backend/internal/model"
	"github.com/hilo-games/hilo-backend/internal/registry"
)

const maxNameLen = 30
const codeLen = 6

type Gateway struct {
	engine   *engine.Engine
	registry *registry.Registry
	locks    *lobbyLocks
	log      *zap.Logger
}

func New(eng *engine.Engine, reg *registry.Registry, log *zap.Logger) *Gateway {
	return &Gateway{
		engine:   eng,
		registry: reg,
		locks:    newLobbyLocks(),
		log:      log,
	}
}

// Session is the connection-scoped identity: which player this connection
// speaks for. It is bound on the first successful create/join and immutable
// afterwards. Outbox carries serialized frames to the writer goroutine.
type Session struct {
	Outbox   chan []byte
	playerID string
	lobbyID  string
}

func NewSession(outbox chan []byte) *Session {
	return &Session{Outbox: outbox}
}

func (s *Session) PlayerID() string { return s.playerID }
func (s *Session) LobbyID() string  { return s.lobbyID }

// HandleFrame processes one inbound frame. Validation failures answer the
// sender only and never touch state. A non-nil return means the connection
// should be closed; game-rule errors are not that.
func (g *Gateway) HandleFrame(ctx context.Context, sess *Session, raw []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("panic handling frame", zap.Any("panic", r))
			err = fmt.Errorf("internal fault: %v", r)
		}
	}()

	var msg ClientMessage
	if jsonErr := json.Unmarshal(raw, &msg); jsonErr != nil {
		g.sendError(sess, "invalid message")
		return nil
	}

	switch msg.Type {
	case TypeCreateLobby:
		return g.handleCreate(ctx, sess, msg)
	case TypeJoinLobby:
		return g.handleJoin(ctx, sess, msg)
	case TypeStartGame:
		return g.handleStart(ctx, sess, msg)
	case TypeSubmitGuess:
		return g.handleGuess(ctx, sess, msg)
	case TypeNewRound:
		return g.handleNewRound(ctx, sess, msg)
	default:
		g.sendError(sess, "unknown message type")
		return nil
	}
}

func (g *Gateway) handleCreate(ctx context.Context, sess *Session, msg ClientMessage) error {
	if sess.playerID != "" {
		g.sendError(sess, "already in a lobby")
		return nil
	}
	if !validName(msg.PlayerName) {
		g.sendError(sess, "playerName must be 1-30 characters")
		return nil
	}

	lobby, host, err := g.engine.CreateLobby(ctx, msg.PlayerName)
	if err != nil {
		return fmt.Errorf("create lobby: %w", err)
	}
	sess.playerID = host.ID
	sess.lobbyID = lobby.ID
	g.registry.Inbox() <- registry.Register{PlayerID: host.ID, LobbyID: lobby.ID, Outbox: sess.Outbox}

	state, err := g.engine.GameState(ctx, lobby.ID)
	if err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	g.send(sess, ServerMessage{Type: TypeLobbyCreated, PlayerID: host.ID, GameState: state})
	g.log.Info("lobby created",
		zap.String("lobby", lobby.ID), zap.String("code", lobby.Code), zap.String("player", host.ID))
	return nil
}

func (g *Gateway) handleJoin(ctx context.Context, sess *Session, msg ClientMessage) error {
	if sess.playerID != "" {
		g.sendError(sess, "already in a lobby")
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(msg.Code))
	if len(code) != codeLen {
		g.sendError(sess, "code must be 6 characters")
		return nil
	}
	if !validName(msg.PlayerName) {
		g.sendError(sess, "playerName must be 1-30 characters")
		return nil
	}

	// Resolve first so the admit runs under the lobby lock; otherwise a join
	// could race the host's start_game past the waiting-status check.
	lobbyID, err := g.engine.ResolveCode(ctx, code)
	if errors.Is(err, engine.ErrLobbyNotFound) {
		g.sendError(sess, "lobby not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve code: %w", err)
	}

	unlock := g.locks.lock(lobbyID)
	lobby, player, err := g.engine.JoinLobby(ctx, code, msg.PlayerName)
	if err != nil {
		unlock()
		switch {
		case errors.Is(err, engine.ErrLobbyNotFound):
			g.sendError(sess, "lobby not found")
		case errors.Is(err, engine.ErrAlreadyStarted):
			g.sendError(sess, "game already started")
		case errors.Is(err, engine.ErrLobbyFull):
			g.sendError(sess, "lobby is full")
		default:
			return fmt.Errorf("join lobby: %w", err)
		}
		return nil
	}
	sess.playerID = player.ID
	sess.lobbyID = lobby.ID
	g.registry.Inbox() <- registry.Register{PlayerID: player.ID, LobbyID: lobby.ID, Outbox: sess.Outbox}

	state, err := g.engine.GameState(ctx, lobby.ID)
	unlock()
	if err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	g.send(sess, ServerMessage{Type: TypeLobbyJoined, PlayerID: player.ID, GameState: state})
	g.broadcast(lobby.ID, state)
	g.log.Info("player joined",
		zap.String("lobby", lobby.ID), zap.String("player", player.ID))
	return nil
}

func (g *Gateway) handleStart(ctx context.Context, sess *Session, msg ClientMessage) error {
	if msg.LobbyID == "" {
		g.sendError(sess, "lobbyId is required")
		return nil
	}

	unlock := g.locks.lock(msg.LobbyID)
	err := g.engine.StartGame(ctx, msg.LobbyID)
	if err != nil {
		unlock()
		switch {
		case errors.Is(err, engine.ErrLobbyNotFound):
			// Already-vanished lobby: the sender is on its way out anyway.
		case errors.Is(err, engine.ErrInsufficientPlayers):
			g.sendError(sess, "need at least 2 players to start")
		default:
			return fmt.Errorf("start game: %w", err)
		}
		return nil
	}
	state, err := g.engine.GameState(ctx, msg.LobbyID)
	unlock()
	if err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	g.broadcast(msg.LobbyID, state)
	g.log.Info("game started", zap.String("lobby", msg.LobbyID))
	return nil
}

func (g *Gateway) handleGuess(ctx context.Context, sess *Session, msg ClientMessage) error {
	if msg.LobbyID == "" {
		g.sendError(sess, "lobbyId is required")
		return nil
	}
	if msg.Guess == nil || *msg.Guess < 1 || *msg.Guess > 100 {
		g.sendError(sess, "guess must be an integer between 1 and 100")
		return nil
	}

	unlock := g.locks.lock(msg.LobbyID)
	guess, err := g.engine.SubmitGuess(ctx, msg.LobbyID, sess.playerID, *msg.Guess)
	if err != nil {
		unlock()
		switch {
		case errors.Is(err, engine.ErrLobbyNotFound):
			// Silent no-op per protocol.
		case errors.Is(err, engine.ErrWrongTurn):
			g.sendError(sess, "not your turn")
		case errors.Is(err, engine.ErrNotPlaying):
			g.sendError(sess, "game is not in progress")
		default:
			return fmt.Errorf("submit guess: %w", err)
		}
		return nil
	}
	state, err := g.engine.GameState(ctx, msg.LobbyID)
	unlock()
	if err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	g.broadcast(msg.LobbyID, state)
	g.log.Info("guess recorded",
		zap.String("lobby", msg.LobbyID),
		zap.String("player", sess.playerID),
		zap.Int("number", guess.Number),
		zap.String("feedback", string(guess.Feedback)))
	return nil
}

func (g *Gateway) handleNewRound(ctx context.Context, sess *Session, msg ClientMessage) error {
	if msg.LobbyID == "" {
		g.sendError(sess, "lobbyId is required")
		return nil
	}

	unlock := g.locks.lock(msg.LobbyID)
	err := g.engine.NewRound(ctx, msg.LobbyID)
	if err != nil {
		unlock()
		if errors.Is(err, engine.ErrLobbyNotFound) {
			return nil
		}
		return fmt.Errorf("new round: %w", err)
	}
	state, err := g.engine.GameState(ctx, msg.LobbyID)
	unlock()
	if err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	g.broadcast(msg.LobbyID, state)
	g.log.Info("new round", zap.String("lobby", msg.LobbyID))
	return nil
}

// Disconnect tears down a connection's player: registry entry first (so the
// leaver gets no further frames), then the engine removal with host
// failover, then a roster update to the survivors.
func (g *Gateway) Disconnect(ctx context.Context, sess *Session) {
	if sess.playerID == "" {
		return
	}
	g.registry.Inbox() <- registry.Unregister{PlayerID: sess.playerID}

	unlock := g.locks.lock(sess.lobbyID)
	empty, err := g.engine.RemovePlayer(ctx, sess.lobbyID, sess.playerID)
	if err != nil && !errors.Is(err, engine.ErrLobbyNotFound) {
		unlock()
		g.log.Error("remove player", zap.Error(err), zap.String("player", sess.playerID))
		return
	}
	if empty {
		unlock()
		g.locks.forget(sess.lobbyID)
		g.log.Info("lobby disposed", zap.String("lobby", sess.lobbyID))
		return
	}
	state, err := g.engine.GameState(ctx, sess.lobbyID)
	unlock()
	if err != nil {
		if !errors.Is(err, engine.ErrLobbyNotFound) {
			g.log.Error("game state after disconnect", zap.Error(err))
		}
		return
	}
	g.broadcast(sess.lobbyID, state)
	g.log.Info("player left",
		zap.String("lobby", sess.lobbyID), zap.String("player", sess.playerID))
}

func (g *Gateway) broadcast(lobbyID string, state *model.GameState) {
	payload, err := json.Marshal(ServerMessage{Type: TypeGameUpdated, GameState: state})
	if err != nil {
		g.log.Error("marshal broadcast", zap.Error(err))
		return
	}
	g.registry.Inbox() <- registry.Broadcast{LobbyID: lobbyID, Payload: payload}
}

func (g *Gateway) send(sess *Session, msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		g.log.Error("marshal frame", zap.Error(err))
		return
	}
	select {
	case sess.Outbox <- payload:
	default:
		g.log.Warn("dropping frame for slow connection", zap.String("player", sess.playerID))
	}
}

func (g *Gateway) sendError(sess *Session, message string) {
	g.send(sess, ServerMessage{Type: TypeError, Message: message})
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= maxNameLen
}
