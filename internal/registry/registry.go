// Package registry maps connected players to their outbound channels and
// fans broadcast frames out per lobby. A single goroutine owns the maps;
// everything talks to it through typed messages on the inbox, so no locks.
package registry

import (
	"context"

	"go.uber.org/zap"
)

type Msg interface{ isRegistryMsg() }

// Register binds a player's live connection. The registry takes ownership
// of Outbox and is the only side that closes it.
type Register struct {
	PlayerID string
	LobbyID  string
	Outbox   chan []byte
}

// Unregister drops a player's connection and closes its outbox.
type Unregister struct{ PlayerID string }

// Broadcast sends one frame to every connection in a lobby. A full or
// already-removed receiver is skipped; it never stalls the others.
type Broadcast struct {
	LobbyID string
	Payload []byte
}

// Count replies with the number of live connections in a lobby (tests).
type Count struct {
	LobbyID string
	Reply   chan int
}

type Shutdown struct{}

func (Register) isRegistryMsg()   {}
func (Unregister) isRegistryMsg() {}
func (Broadcast) isRegistryMsg()  {}
func (Count) isRegistryMsg()      {}
func (Shutdown) isRegistryMsg()   {}

type client struct {
	lobbyID string
	outbox  chan []byte
}

type Registry struct {
	inbox   chan Msg
	clients map[string]client
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:   make(chan Msg, 64),
		clients: make(map[string]client),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- Msg { return r.inbox }

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Register:
				r.clients[msg.PlayerID] = client{lobbyID: msg.LobbyID, outbox: msg.Outbox}

			case Unregister:
				if c, ok := r.clients[msg.PlayerID]; ok {
					close(c.outbox)
					delete(r.clients, msg.PlayerID)
				}

			case Broadcast:
				for id, c := range r.clients {
					if c.lobbyID != msg.LobbyID {
						continue
					}
					select {
					case c.outbox <- msg.Payload:
					default:
						// Receiver stopped draining; skip it rather than
						// stall the rest of the lobby.
						r.log.Warn("dropping frame for slow client",
							zap.String("player", id),
							zap.String("lobby", msg.LobbyID))
					}
				}

			case Count:
				n := 0
				for _, c := range r.clients {
					if c.lobbyID == msg.LobbyID {
						n++
					}
				}
				msg.Reply <- n

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Registry) shutdown() {
	for id, c := range r.clients {
		close(c.outbox)
		delete(r.clients, id)
	}
	r.cancel()
}
