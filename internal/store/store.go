package store

import (
	"context"
	"errors"

	"github.com/hilo-games/hilo-backend/internal/model"
)

var ErrNotFound = errors.New("not found")
var ErrCodeTaken = errors.New("join code already active")

// Store is plain CRUD over the three entity types. No game rules live here;
// the one invariant it enforces is join-code uniqueness among active
// lobbies, so that concurrent creates cannot race the collision check.
type Store interface {
	CreateLobby(ctx context.Context, lobby *model.Lobby) error
	GetLobby(ctx context.Context, id string) (*model.Lobby, error)
	GetLobbyByCode(ctx context.Context, code string) (*model.Lobby, error)
	UpdateLobby(ctx context.Context, lobby *model.Lobby) error
	// DeleteLobby removes the lobby and reclaims its join code.
	DeleteLobby(ctx context.Context, id string) error

	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id string) (*model.Player, error)
	UpdatePlayer(ctx context.Context, player *model.Player) error
	// PlayersByLobby returns players ordered by join time, ties broken by ID.
	PlayersByLobby(ctx context.Context, lobbyID string) ([]model.Player, error)
	DeletePlayer(ctx context.Context, id string) error

	AddGuess(ctx context.Context, guess *model.Guess) error
	// GuessesByLobby returns guesses ordered by timestamp.
	GuessesByLobby(ctx context.Context, lobbyID string) ([]model.Guess, error)
	ClearGuesses(ctx context.Context, lobbyID string) error
}
