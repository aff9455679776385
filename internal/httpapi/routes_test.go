package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hilo-games/hilo-backend/internal/engine"
	"github.com/hilo-games/hilo-backend/internal/gateway"
	"github.com/hilo-games/hilo-backend/internal/registry"
	"github.com/hilo-games/hilo-backend/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	eng := engine.New(store.NewMemory(), engine.Config{TargetFn: func() int { return 42 }})
	reg := registry.New(ctx, zap.NewNop())
	gw := gateway.New(eng, reg, zap.NewNop())

	srv := httptest.NewServer(SetupRoutes(gw, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocket_CreateLobbyRoundTrip(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	err = conn.Write(ctx, websocket.MessageText,
		[]byte(`{"type":"create_lobby","playerName":"Alice"}`))
	require.NoError(t, err)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg gateway.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, gateway.TypeLobbyCreated, msg.Type)
	assert.NotEmpty(t, msg.PlayerID)
	require.NotNil(t, msg.GameState)
	assert.Len(t, msg.GameState.Lobby.Code, 6)
}

func TestWebSocket_TwoClientsShareBroadcasts(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	alice, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer alice.Close(websocket.StatusNormalClosure, "done")
	bob, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer bob.Close(websocket.StatusNormalClosure, "done")

	require.NoError(t, alice.Write(ctx, websocket.MessageText,
		[]byte(`{"type":"create_lobby","playerName":"Alice"}`)))
	_, data, err := alice.Read(ctx)
	require.NoError(t, err)
	var created gateway.ServerMessage
	require.NoError(t, json.Unmarshal(data, &created))

	join, _ := json.Marshal(map[string]string{
		"type": "join_lobby", "code": created.GameState.Lobby.Code, "playerName": "Bob",
	})
	require.NoError(t, bob.Write(ctx, websocket.MessageText, join))

	_, data, err = bob.Read(ctx)
	require.NoError(t, err)
	var joined gateway.ServerMessage
	require.NoError(t, json.Unmarshal(data, &joined))
	assert.Equal(t, gateway.TypeLobbyJoined, joined.Type)

	// The roster change reaches the creator too.
	_, data, err = alice.Read(ctx)
	require.NoError(t, err)
	var updated gateway.ServerMessage
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, gateway.TypeGameUpdated, updated.Type)
	assert.Len(t, updated.GameState.Players, 2)
}
