package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/hilo-games/hilo-backend/internal/gateway"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection and runs the read loop. One outbox
// channel per connection feeds a writer goroutine, so a slow socket never
// blocks frame handling. Disconnecting, however it happens, funnels through
// gateway.Disconnect exactly once.
func Handler(gw *gateway.Gateway, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Warn("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan []byte, 16)
		sess := gateway.NewSession(out)

		// Cleanup runs with its own context: the request context is already
		// canceled by the time the connection drops.
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			gw.Disconnect(ctx, sess)
		}()

		writeCtx, writeCancel := context.WithCancel(context.Background())
		defer writeCancel()
		go func() {
			for {
				select {
				case payload, ok := <-out:
					if !ok {
						return
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					err := conn.Write(ctx, websocket.MessageText, payload)
					cancel()
					if err != nil {
						return
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		for {
			// No read deadline: players idle in a lobby legitimately.
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read", zap.Error(err))
				}
				return
			}

			if err := gw.HandleFrame(r.Context(), sess, data); err != nil {
				// Internal fault: close this connection only.
				log.Error("closing connection", zap.Error(err),
					zap.String("player", sess.PlayerID()))
				conn.Close(websocket.StatusInternalError, "internal error")
				return
			}
		}
	}
}
