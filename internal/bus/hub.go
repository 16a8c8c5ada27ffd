// Package bus fans column updates out to live subscribers without ever
// blocking the publisher.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/debatecoach/internal/types"
)

const (
	// SubscriberBuffer is the per-subscriber channel capacity. Updates beyond
	// it are dropped for that subscriber.
	SubscriberBuffer = 100
	mirrorTimeout    = 2 * time.Second
)

// Update kinds.
const (
	KindTurn    = "turn"
	KindDistill = "distill"
)

// Update is one column change for a session.
type Update struct {
	SessionID types.SessionID `json:"session_id"`
	Kind      string          `json:"kind"`
	At        time.Time       `json:"ts"`
	Reply     string          `json:"chat_reply,omitempty"`
	Events    []types.Event   `json:"events,omitempty"`
	Data      any             `json:"data,omitempty"`
}

// Mirror forwards updates to an external channel.
type Mirror interface {
	Mirror(ctx context.Context, u Update) error
}

type subscriber struct {
	session types.SessionID
	ch      chan Update
}

// Hub is an in-process pub/sub keyed by session. Subscribing to the empty
// session id receives every update.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	closed  bool
	mirror  Mirror
	wg      sync.WaitGroup
	dropped map[types.SessionID]int
}

type HubOption func(*Hub)

// WithMirror also publishes every update through m in the background.
func WithMirror(m Mirror) HubOption {
	return func(h *Hub) { h.mirror = m }
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subs:    make(map[*subscriber]struct{}),
		dropped: make(map[types.SessionID]int),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers for updates on session. The returned cancel func
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(session types.SessionID) (<-chan Update, func()) {
	s := &subscriber{session: session, ch: make(chan Update, SubscriberBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() { once.Do(func() { h.unsubscribe(s) }) }
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Publish delivers u to every matching subscriber whose buffer has room.
// It never blocks.
func (h *Hub) Publish(u Update) {
	if u.At.IsZero() {
		u.At = time.Now().UTC()
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	dropped := 0
	for s := range h.subs {
		if s.session != "" && s.session != u.SessionID {
			continue
		}
		select {
		case s.ch <- u:
		default:
			dropped++
		}
	}
	if h.mirror != nil {
		h.wg.Add(1)
		go h.forward(u)
	}
	h.mu.RUnlock()

	if dropped > 0 {
		h.mu.Lock()
		h.dropped[u.SessionID] += dropped
		h.mu.Unlock()
		slog.Debug("bus update dropped", "session_id", u.SessionID, "subscribers", dropped)
	}
}

func (h *Hub) forward(u Update) {
	defer h.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := h.mirror.Mirror(ctx, u); err != nil {
		slog.Warn("bus mirror failed", "session_id", u.SessionID, "error", err)
	}
}

// Dropped reports how many deliveries were skipped for session.
func (h *Hub) Dropped(session types.SessionID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped[session]
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel and waits for in-flight mirror
// publishes.
func (h *Hub) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		for s := range h.subs {
			close(s.ch)
		}
		h.subs = make(map[*subscriber]struct{})
	}
	h.mu.Unlock()
	h.wg.Wait()
}
