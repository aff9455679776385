package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/hilo-games/hilo-backend/internal/model"
	"github.com/hilo-games/hilo-backend/internal/store"
)

var ErrLobbyNotFound = errors.New("lobby not found")
var ErrAlreadyStarted = errors.New("game already started")
var ErrInsufficientPlayers = errors.New("need at least 2 players")
var ErrLobbyFull = errors.New("lobby is full")
var ErrWrongTurn = errors.New("not your turn")
var ErrNotPlaying = errors.New("game is not in progress")

const DefaultMaxPlayers = 16

// Config tunes an Engine. Zero values select the defaults.
type Config struct {
	// MaxPlayers caps lobby membership; 0 means DefaultMaxPlayers,
	// negative means unlimited.
	MaxPlayers int
	// TargetFn draws the hidden target. Tests stub it for determinism.
	TargetFn func() int
	// Now returns guess timestamps in unix milliseconds.
	Now func() int64
}

// Engine holds every state transition of the guessing game. It is a pure
// service over the Store and does no locking; callers must serialize
// mutations of the same lobby (the gateway holds one lock per lobby).
type Engine struct {
	store      store.Store
	maxPlayers int
	targetFn   func() int
	now        func() int64
}

func New(st store.Store, cfg Config) *Engine {
	e := &Engine{
		store:      st,
		maxPlayers: cfg.MaxPlayers,
		targetFn:   cfg.TargetFn,
		now:        cfg.Now,
	}
	if e.maxPlayers == 0 {
		e.maxPlayers = DefaultMaxPlayers
	}
	if e.targetFn == nil {
		e.targetFn = func() int {
			return model.MinTarget + rand.Intn(model.MaxTarget-model.MinTarget+1)
		}
	}
	if e.now == nil {
		e.now = func() int64 { return time.Now().UnixMilli() }
	}
	return e
}

// CreateLobby makes a waiting lobby with a fresh unique join code and its
// host player. Code collisions are resolved by retrying against the store,
// which rejects duplicate active codes atomically.
func (e *Engine) CreateLobby(ctx context.Context, hostName string) (*model.Lobby, *model.Player, error) {
	host := &model.Player{
		ID:       uuid.NewString(),
		Name:     hostName,
		IsHost:   true,
		JoinedAt: time.Now().UnixNano(),
	}

	var lobby *model.Lobby
	for {
		code, err := GenerateCode()
		if err != nil {
			return nil, nil, fmt.Errorf("generate code: %w", err)
		}
		lobby = &model.Lobby{
			ID:           uuid.NewString(),
			Code:         code,
			HostID:       host.ID,
			TargetNumber: e.targetFn(),
			Status:       model.StatusWaiting,
		}
		err = e.store.CreateLobby(ctx, lobby)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrCodeTaken) {
			continue
		}
		return nil, nil, err
	}

	host.LobbyID = lobby.ID
	if err := e.store.CreatePlayer(ctx, host); err != nil {
		return nil, nil, err
	}
	return lobby, host, nil
}

// ResolveCode maps an active join code to its lobby ID, so callers can take
// the lobby lock before admitting the player.
func (e *Engine) ResolveCode(ctx context.Context, code string) (string, error) {
	lobby, err := e.store.GetLobbyByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrLobbyNotFound
	}
	if err != nil {
		return "", err
	}
	return lobby.ID, nil
}

// JoinLobby admits a new player by join code. Only waiting lobbies accept
// joins.
func (e *Engine) JoinLobby(ctx context.Context, code, name string) (*model.Lobby, *model.Player, error) {
	lobby, err := e.store.GetLobbyByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if lobby.Status != model.StatusWaiting {
		return nil, nil, ErrAlreadyStarted
	}

	if e.maxPlayers > 0 {
		players, err := e.store.PlayersByLobby(ctx, lobby.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(players) >= e.maxPlayers {
			return nil, nil, ErrLobbyFull
		}
	}

	player := &model.Player{
		ID:       uuid.NewString(),
		Name:     name,
		LobbyID:  lobby.ID,
		JoinedAt: time.Now().UnixNano(),
	}
	if err := e.store.CreatePlayer(ctx, player); err != nil {
		return nil, nil, err
	}
	return lobby, player, nil
}

// StartGame moves a lobby to playing with the turn index reset. The target
// was already drawn at creation and is kept.
func (e *Engine) StartGame(ctx context.Context, lobbyID string) error {
	lobby, err := e.store.GetLobby(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrLobbyNotFound
	}
	if err != nil {
		return err
	}
	players, err := e.store.PlayersByLobby(ctx, lobby.ID)
	if err != nil {
		return err
	}
	if len(players) < 2 {
		return ErrInsufficientPlayers
	}

	lobby.Status = model.StatusPlaying
	lobby.CurrentTurnIndex = 0
	return e.store.UpdateLobby(ctx, lobby)
}

// SubmitGuess validates turn ownership, records the guess, and either
// finishes the round (correct) or advances the turn by one. The modulo over
// the live player count is applied at read time, never at increment time.
func (e *Engine) SubmitGuess(ctx context.Context, lobbyID, playerID string, number int) (*model.Guess, error) {
	lobby, err := e.store.GetLobby(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, err
	}
	if lobby.Status != model.StatusPlaying {
		return nil, ErrNotPlaying
	}

	players, err := e.store.PlayersByLobby(ctx, lobby.ID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, ErrLobbyNotFound
	}
	current := players[lobby.CurrentTurnIndex%len(players)]
	if current.ID != playerID {
		return nil, ErrWrongTurn
	}

	guess := &model.Guess{
		LobbyID:    lobby.ID,
		PlayerID:   current.ID,
		PlayerName: current.Name,
		Number:     number,
		Timestamp:  e.now(),
	}
	switch {
	case number == lobby.TargetNumber:
		guess.Feedback = model.FeedbackCorrect
	case number < lobby.TargetNumber:
		guess.Feedback = model.FeedbackHigher
	default:
		guess.Feedback = model.FeedbackLower
	}
	if err := e.store.AddGuess(ctx, guess); err != nil {
		return nil, err
	}

	if guess.Feedback == model.FeedbackCorrect {
		lobby.Status = model.StatusFinished
		lobby.WinnerID = current.ID
	} else {
		lobby.CurrentTurnIndex++
	}
	if err := e.store.UpdateLobby(ctx, lobby); err != nil {
		return nil, err
	}
	return guess, nil
}

// NewRound rearms a lobby: fresh target, cleared history, turn index 0,
// no winner, status playing.
func (e *Engine) NewRound(ctx context.Context, lobbyID string) error {
	lobby, err := e.store.GetLobby(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrLobbyNotFound
	}
	if err != nil {
		return err
	}

	lobby.Status = model.StatusPlaying
	lobby.CurrentTurnIndex = 0
	lobby.WinnerID = ""
	lobby.TargetNumber = e.targetFn()
	if err := e.store.UpdateLobby(ctx, lobby); err != nil {
		return err
	}
	return e.store.ClearGuesses(ctx, lobby.ID)
}

// RemovePlayer handles a disconnect. The host flag migrates to the earliest
// joined survivor; the whole lobby is disposed when the last player leaves.
// The turn index is deliberately not adjusted: whose turn it is shifts with
// the modulo over the shrunken roster.
func (e *Engine) RemovePlayer(ctx context.Context, lobbyID, playerID string) (lobbyEmpty bool, err error) {
	player, err := e.store.GetPlayer(ctx, playerID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrLobbyNotFound
	}
	if err != nil {
		return false, err
	}
	if err := e.store.DeletePlayer(ctx, playerID); err != nil {
		return false, err
	}

	remaining, err := e.store.PlayersByLobby(ctx, lobbyID)
	if err != nil {
		return false, err
	}
	if len(remaining) == 0 {
		if err := e.store.ClearGuesses(ctx, lobbyID); err != nil {
			return true, err
		}
		if err := e.store.DeleteLobby(ctx, lobbyID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return true, err
		}
		return true, nil
	}

	if player.IsHost {
		next := remaining[0]
		next.IsHost = true
		if err := e.store.UpdatePlayer(ctx, &next); err != nil {
			return false, err
		}
		lobby, err := e.store.GetLobby(ctx, lobbyID)
		if err != nil {
			return false, err
		}
		lobby.HostID = next.ID
		if err := e.store.UpdateLobby(ctx, lobby); err != nil {
			return false, err
		}
	}
	return false, nil
}
