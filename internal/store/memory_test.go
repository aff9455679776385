package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hilo-games/hilo-backend/internal/model"
)

func TestMemory_LobbyCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	lobby := &model.Lobby{ID: "l1", Code: "ABC123", HostID: "p1", TargetNumber: 42, Status: model.StatusWaiting}
	require.NoError(t, m.CreateLobby(ctx, lobby))

	got, err := m.GetLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, lobby, got)

	byCode, err := m.GetLobbyByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "l1", byCode.ID)

	lobby.Status = model.StatusPlaying
	require.NoError(t, m.UpdateLobby(ctx, lobby))
	got, err = m.GetLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPlaying, got.Status)

	require.NoError(t, m.DeleteLobby(ctx, "l1"))
	_, err = m.GetLobby(ctx, "l1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_DuplicateCodeRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateLobby(ctx, &model.Lobby{ID: "l1", Code: "ABC123"}))
	err := m.CreateLobby(ctx, &model.Lobby{ID: "l2", Code: "ABC123"})
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestMemory_CodeReclaimedOnDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateLobby(ctx, &model.Lobby{ID: "l1", Code: "ABC123"}))
	require.NoError(t, m.DeleteLobby(ctx, "l1"))
	assert.NoError(t, m.CreateLobby(ctx, &model.Lobby{ID: "l2", Code: "ABC123"}))
}

func TestMemory_PlayersOrderedByJoinTime(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "c", LobbyID: "l1", Name: "Carol", JoinedAt: 3}))
	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "a", LobbyID: "l1", Name: "Alice", JoinedAt: 1}))
	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "b", LobbyID: "l1", Name: "Bob", JoinedAt: 2}))
	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "x", LobbyID: "other", Name: "Eve", JoinedAt: 0}))

	players, err := m.PlayersByLobby(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{players[0].Name, players[1].Name, players[2].Name})
}

func TestMemory_PlayersTieBrokenByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "b", LobbyID: "l1", JoinedAt: 7}))
	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "a", LobbyID: "l1", JoinedAt: 7}))

	players, err := m.PlayersByLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "a", players[0].ID)
}

func TestMemory_UpdatePlayer(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreatePlayer(ctx, &model.Player{ID: "a", LobbyID: "l1", Name: "Alice"}))
	require.NoError(t, m.UpdatePlayer(ctx, &model.Player{ID: "a", LobbyID: "l1", Name: "Alice", IsHost: true}))

	got, err := m.GetPlayer(ctx, "a")
	require.NoError(t, err)
	assert.True(t, got.IsHost)

	assert.ErrorIs(t, m.UpdatePlayer(ctx, &model.Player{ID: "ghost"}), ErrNotFound)
}

func TestMemory_Guesses(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.AddGuess(ctx, &model.Guess{LobbyID: "l1", Number: 50, Feedback: model.FeedbackLower, Timestamp: 1}))
	require.NoError(t, m.AddGuess(ctx, &model.Guess{LobbyID: "l1", Number: 42, Feedback: model.FeedbackCorrect, Timestamp: 2}))
	require.NoError(t, m.AddGuess(ctx, &model.Guess{LobbyID: "l2", Number: 7, Feedback: model.FeedbackHigher, Timestamp: 3}))

	guesses, err := m.GuessesByLobby(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, guesses, 2)
	assert.Equal(t, 50, guesses[0].Number)
	assert.Equal(t, 42, guesses[1].Number)

	// Returned slice is a copy; mutating it must not touch the store.
	guesses[0].Number = 99
	again, err := m.GuessesByLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 50, again[0].Number)

	require.NoError(t, m.ClearGuesses(ctx, "l1"))
	guesses, err = m.GuessesByLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, guesses)

	other, err := m.GuessesByLobby(ctx, "l2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestMemory_DeleteLobbyDropsGuesses(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateLobby(ctx, &model.Lobby{ID: "l1", Code: "ABC123"}))
	require.NoError(t, m.AddGuess(ctx, &model.Guess{LobbyID: "l1", Number: 50}))
	require.NoError(t, m.DeleteLobby(ctx, "l1"))

	guesses, err := m.GuessesByLobby(ctx, "l1")
	require.NoError(t, err)
	assert.Empty(t, guesses)
}
