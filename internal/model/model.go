package model

// Status is the lifecycle state of a lobby.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Feedback is the three-way result of comparing a guess to the target.
type Feedback string

const (
	FeedbackHigher  Feedback = "higher"
	FeedbackLower   Feedback = "lower"
	FeedbackCorrect Feedback = "correct"
)

const (
	MinTarget = 1
	MaxTarget = 100
)

// Lobby is one game session. TargetNumber is server-side only; clients see
// it through LobbyView, and only once the round is finished.
type Lobby struct {
	ID               string `json:"id" gorm:"primaryKey"`
	Code             string `json:"code" gorm:"uniqueIndex"`
	HostID           string `json:"hostId"`
	TargetNumber     int    `json:"-"`
	CurrentTurnIndex int    `json:"currentTurnIndex"`
	Status           Status `json:"status"`
	WinnerID         string `json:"winnerId,omitempty"`
}

// Player belongs to exactly one lobby. JoinedAt (unix nanos) fixes the
// creation order used for turn rotation and host failover.
type Player struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	LobbyID  string `json:"lobbyId" gorm:"index"`
	IsHost   bool   `json:"isHost"`
	JoinedAt int64  `json:"-"`
}

// Guess is an immutable record of one accepted guess. PlayerName is
// denormalized so the history survives the player disconnecting.
type Guess struct {
	LobbyID    string   `json:"-" gorm:"index"`
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Number     int      `json:"number"`
	Feedback   Feedback `json:"feedback"`
	Timestamp  int64    `json:"timestamp"`
}

// LobbyView is the client-visible projection of a Lobby. TargetNumber is
// populated only when the round is finished.
type LobbyView struct {
	ID               string `json:"id"`
	Code             string `json:"code"`
	HostID           string `json:"hostId"`
	TargetNumber     int    `json:"targetNumber,omitempty"`
	CurrentTurnIndex int    `json:"currentTurnIndex"`
	Status           Status `json:"status"`
	WinnerID         string `json:"winnerId,omitempty"`
}

// GameState is the derived view broadcast to clients. It is recomputed from
// the store on every read and never persisted.
type GameState struct {
	Lobby         LobbyView `json:"lobby"`
	Players       []Player  `json:"players"`
	Guesses       []Guess   `json:"guesses"`
	CurrentPlayer *Player   `json:"currentPlayer,omitempty"`
	MinRange      int       `json:"minRange"`
	MaxRange      int       `json:"maxRange"`
}
