package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

// DefaultFeedSize is how many notifications the dashboard feed retains.
const DefaultFeedSize = 200

// FeedSink keeps recent notifications in memory for the dashboard feed and
// pushes each one to websocket subscribers.
type FeedSink struct {
	name string
	hub  *Hub

	mu    sync.RWMutex
	items []domain.AlertNotification
	next  int
	full  bool
}

// NewFeedSink creates a FeedSink retaining size notifications.
func NewFeedSink(size int, hub *Hub) *FeedSink {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &FeedSink{
		name:  "feed",
		hub:   hub,
		items: make([]domain.AlertNotification, size),
	}
}

// Name implements Sink.
func (f *FeedSink) Name() string { return f.name }

// Send appends n to the feed and broadcasts it.
func (f *FeedSink) Send(_ context.Context, n *domain.AlertNotification) error {
	defer observe(f.name, time.Now())

	payload, err := json.Marshal(n)
	if err != nil {
		return Permanent(fmt.Errorf("marshaling feed item: %w", err))
	}

	f.mu.Lock()
	f.items[f.next] = *n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	f.mu.Unlock()

	if f.hub != nil {
		f.hub.Broadcast(payload)
	}
	return nil
}

// Recent returns up to limit notifications, newest first (0 = all retained).
func (f *FeedSink) Recent(limit int) []domain.AlertNotification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := f.next
	if f.full {
		n = len(f.items)
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.AlertNotification, 0, n)
	for i := range n {
		idx := (f.next - 1 - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}

// ServeWS streams the feed over a websocket, replaying retained items
// oldest first before live ones.
func (f *FeedSink) ServeWS(w http.ResponseWriter, r *http.Request) {
	if f.hub == nil {
		http.Error(w, "feed streaming disabled", http.StatusServiceUnavailable)
		return
	}

	recent := f.Recent(0)
	backlog := make([][]byte, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		b, err := json.Marshal(recent[i])
		if err != nil {
			continue
		}
		backlog = append(backlog, b)
	}
	f.hub.ServeWS(w, r, backlog)
}
