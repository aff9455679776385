package gateway

import "github.com/hilo-games/hilo-backend/internal/model"

// Wire contract (one JSON object per text frame).
//
// Client -> Server
// create_lobby:
//   playerName: string, 1-30 chars
//
// join_lobby:
//   code: string, exactly 6 chars (upper-cased before lookup)
//   playerName: string, 1-30 chars
//
// start_game:
//   lobbyId: string
//
// submit_guess:
//   lobbyId: string
//   guess: integer 1-100
//
// new_round:
//   lobbyId: string
//
// Server -> Client
// lobby_created:
//   playerId: string
//   gameState: GameState
//
// lobby_joined:
//   playerId: string
//   gameState: GameState
//
// game_updated:
//   gameState: GameState
//
// error:
//   message: string
//
// GameState: { lobby, players[], guesses[], currentPlayer?, minRange, maxRange }
// The lobby object carries targetNumber only once status is "finished".

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	Code       string `json:"code,omitempty"`
	LobbyID    string `json:"lobbyId,omitempty"`
	Guess      *int   `json:"guess,omitempty"`
}

type ServerMessage struct {
	Type      string           `json:"type"`
	PlayerID  string           `json:"playerId,omitempty"`
	GameState *model.GameState `json:"gameState,omitempty"`
	Message   string           `json:"message,omitempty"`
}

const (
	TypeCreateLobby = "create_lobby"
	TypeJoinLobby   = "join_lobby"
	TypeStartGame   = "start_game"
	TypeSubmitGuess = "submit_guess"
	TypeNewRound    = "new_round"

	TypeLobbyCreated = "lobby_created"
	TypeLobbyJoined  = "lobby_joined"
	TypeGameUpdated  = "game_updated"
	TypeError        = "error"
)
