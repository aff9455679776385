package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hilo-games/hilo-backend/internal/model"
)

// Memory is the reference in-memory Store: maps guarded by a single RWMutex.
// Values are copied on the way in and out so callers never share memory with
// the store.
type Memory struct {
	mu      sync.RWMutex
	lobbies map[string]model.Lobby
	codes   map[string]string // code -> lobby id
	players map[string]model.Player
	guesses map[string][]model.Guess // lobby id -> ordered guesses
}

func NewMemory() *Memory {
	return &Memory{
		lobbies: make(map[string]model.Lobby),
		codes:   make(map[string]string),
		players: make(map[string]model.Player),
		guesses: make(map[string][]model.Guess),
	}
}

func (m *Memory) CreateLobby(_ context.Context, lobby *model.Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[lobby.Code]; taken {
		return ErrCodeTaken
	}
	m.lobbies[lobby.ID] = *lobby
	m.codes[lobby.Code] = lobby.ID
	return nil
}

func (m *Memory) GetLobby(_ context.Context, id string) (*model.Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lobby, ok := m.lobbies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &lobby, nil
}

func (m *Memory) GetLobbyByCode(_ context.Context, code string) (*model.Lobby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	lobby := m.lobbies[id]
	return &lobby, nil
}

func (m *Memory) UpdateLobby(_ context.Context, lobby *model.Lobby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lobbies[lobby.ID]; !ok {
		return ErrNotFound
	}
	m.lobbies[lobby.ID] = *lobby
	return nil
}

func (m *Memory) DeleteLobby(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lobby, ok := m.lobbies[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.codes, lobby.Code)
	delete(m.lobbies, id)
	delete(m.guesses, id)
	return nil
}

func (m *Memory) CreatePlayer(_ context.Context, player *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.ID] = *player
	return nil
}

func (m *Memory) GetPlayer(_ context.Context, id string) (*model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	player, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &player, nil
}

func (m *Memory) UpdatePlayer(_ context.Context, player *model.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[player.ID]; !ok {
		return ErrNotFound
	}
	m.players[player.ID] = *player
	return nil
}

func (m *Memory) PlayersByLobby(_ context.Context, lobbyID string) ([]model.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Player
	for _, p := range m.players {
		if p.LobbyID == lobbyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt != out[j].JoinedAt {
			return out[i].JoinedAt < out[j].JoinedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeletePlayer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[id]; !ok {
		return ErrNotFound
	}
	delete(m.players, id)
	return nil
}

func (m *Memory) AddGuess(_ context.Context, guess *model.Guess) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guesses[guess.LobbyID] = append(m.guesses[guess.LobbyID], *guess)
	return nil
}

func (m *Memory) GuessesByLobby(_ context.Context, lobbyID string) ([]model.Guess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.guesses[lobbyID]
	out := make([]model.Guess, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) ClearGuesses(_ context.Context, lobbyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.guesses, lobbyID)
	return nil
}
