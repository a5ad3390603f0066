package hub

import (
	"sync"
	"time"
)

const (
	chatLimitPerWindow = 60
	chatLimitWindow    = time.Minute
)

// ChatLimiter caps chat messages per connection with a fixed one-minute
// window. Signaling and status events are not limited; they are paced by
// the clients themselves.
type ChatLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewChatLimiter creates an empty limiter.
func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{
		clients: make(map[string]*clientWindow),
	}
}

// Allow reports whether connID may send another chat message now.
func (l *ChatLimiter) Allow(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.clients[connID]
	if !exists || now.Sub(w.windowStart) >= chatLimitWindow {
		l.clients[connID] = &clientWindow{count: 1, windowStart: now}
		return true
	}
	if w.count >= chatLimitPerWindow {
		return false
	}
	w.count++
	return true
}

// Forget drops the window for a departed connection.
func (l *ChatLimiter) Forget(connID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, connID)
}
