package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lengapp/leng-api/api/sanitize"
	"github.com/lengapp/leng-api/models"
)

const (
	liveSendBuffer = 16
	liveWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveClient struct {
	send chan []byte
}

// PollHub fans poll updates out to the websocket subscribers of a slug
type PollHub struct {
	mu     sync.RWMutex
	slugs  map[string]map[*liveClient]struct{}
	closed bool
}

// NewPollHub returns an empty hub
func NewPollHub() *PollHub {
	return &PollHub{slugs: map[string]map[*liveClient]struct{}{}}
}

func (h *PollHub) subscribe(slug string) *liveClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	c := &liveClient{send: make(chan []byte, liveSendBuffer)}
	if h.slugs[slug] == nil {
		h.slugs[slug] = map[*liveClient]struct{}{}
	}
	h.slugs[slug][c] = struct{}{}
	return c
}

func (h *PollHub) unsubscribe(slug string, c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.slugs[slug][c]; !ok {
		return
	}
	delete(h.slugs[slug], c)
	if len(h.slugs[slug]) == 0 {
		delete(h.slugs, slug)
	}
	close(c.send)
}

// Subscribers returns the number of live connections for slug
func (h *PollHub) Subscribers(slug string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.slugs[slug])
}

// Broadcast sends a poll_updated event to every subscriber of slug. Slow
// subscribers whose buffer is full miss the event.
func (h *PollHub) Broadcast(slug string, poll models.Poll) {
	if h == nil {
		return
	}
	msg, err := json.Marshal(map[string]interface{}{"event": "poll_updated", "data": poll})
	if err != nil {
		zap.S().Warnw("failed to encode poll event", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.slugs[slug] {
		select {
		case c.send <- msg:
		default:
			zap.S().Debugw("dropping poll event for slow subscriber", "slug", slug)
		}
	}
}

// Close disconnects every subscriber
func (h *PollHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for slug, clients := range h.slugs {
		for c := range clients {
			close(c.send)
		}
		delete(h.slugs, slug)
	}
}

// LiveHandler upgrades to a websocket streaming poll updates for a slug
func (h *PollHub) LiveHandler(w http.ResponseWriter, r *http.Request) {
	slug := sanitize.NormalizeSlug(mux.Vars(r)["slug"])
	if err := sanitize.ValidateSlug(slug); err != nil {
		respondError(w, r, badRequest(err.Error()))
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "error", err)
		return
	}
	c := h.subscribe(slug)
	if c == nil {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range c.send {
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
	}()

	// reads only detect the disconnect; clients never send data
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.unsubscribe(slug, c)
	conn.Close()
	<-done
}
