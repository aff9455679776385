package gateway

import "sync"

// lobbyLocks hands out one mutex per lobby so that the turn-ownership check
// and the mutation it guards run as a unit. Entries are dropped when the
// lobby is disposed; a straggler locking a forgotten key just gets a fresh
// mutex around a lobby the engine no longer knows, which is a no-op.
type lobbyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLobbyLocks() *lobbyLocks {
	return &lobbyLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *lobbyLocks) lock(lobbyID string) func() {
	l.mu.Lock()
	m, ok := l.locks[lobbyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[lobbyID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (l *lobbyLocks) forget(lobbyID string) {
	l.mu.Lock()
	delete(l.locks, lobbyID)
	l.mu.Unlock()
}
