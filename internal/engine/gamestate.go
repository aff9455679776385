package engine

import (
	"context"
	"errors"

	"github.com/hilo-games/hilo-backend/internal/model"
	"github.com/hilo-games/hilo-backend/internal/store"
)

// GameState recomputes the full client-visible view from the store. It is
// never cached. The valid-guess bounds are derived from the whole guess
// history and depend only on the set of feedbacks, not their order: every
// "higher" raises the floor to number+1, every "lower" drops the ceiling to
// number-1, and the tightest of each wins.
func (e *Engine) GameState(ctx context.Context, lobbyID string) (*model.GameState, error) {
	lobby, err := e.store.GetLobby(ctx, lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLobbyNotFound
	}
	if err != nil {
		return nil, err
	}
	players, err := e.store.PlayersByLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	guesses, err := e.store.GuessesByLobby(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	minRange, maxRange := model.MinTarget, model.MaxTarget
	for _, g := range guesses {
		switch g.Feedback {
		case model.FeedbackHigher:
			if g.Number+1 > minRange {
				minRange = g.Number + 1
			}
		case model.FeedbackLower:
			if g.Number-1 < maxRange {
				maxRange = g.Number - 1
			}
		}
	}

	gs := &model.GameState{
		Lobby:    scrubLobby(lobby),
		Players:  players,
		Guesses:  guesses,
		MinRange: minRange,
		MaxRange: maxRange,
	}
	if len(players) > 0 {
		current := players[lobby.CurrentTurnIndex%len(players)]
		gs.CurrentPlayer = &current
	}
	return gs, nil
}

// scrubLobby hides the target number until the round is over. The reference
// protocol leaked it on every frame, which let clients cheat by reading the
// payload.
func scrubLobby(lobby *model.Lobby) model.LobbyView {
	view := model.LobbyView{
		ID:               lobby.ID,
		Code:             lobby.Code,
		HostID:           lobby.HostID,
		CurrentTurnIndex: lobby.CurrentTurnIndex,
		Status:           lobby.Status,
		WinnerID:         lobby.WinnerID,
	}
	if lobby.Status == model.StatusFinished {
		view.TargetNumber = lobby.TargetNumber
	}
	return view
}
