package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyuha/portfolioviz/internal/layout"
	"github.com/vyuha/portfolioviz/internal/view"
)

// ---------------------------------------------------------------------------
// SSE Types
// ---------------------------------------------------------------------------

// SSEEvent is a single server-sent event.
type SSEEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ---------------------------------------------------------------------------
// SSEBroadcaster
// ---------------------------------------------------------------------------

// SSEBroadcaster fans out SSE events to the HTTP clients subscribed to a
// topic (a session id). Each client is identified by a unique string ID
// and receives events through a buffered channel.
type SSEBroadcaster struct {
	mu      sync.RWMutex
	topics  map[string]map[string]chan SSEEvent
	clients int

	// OnChange, when set, receives the client count after every change.
	OnChange func(clients int)
}

// NewSSEBroadcaster creates a ready-to-use broadcaster.
func NewSSEBroadcaster() *SSEBroadcaster {
	return &SSEBroadcaster{
		topics: make(map[string]map[string]chan SSEEvent),
	}
}

// Subscribe registers a new client on topic and returns its event channel.
// The channel is buffered (64) so slow consumers don't block publishers.
func (b *SSEBroadcaster) Subscribe(topic, clientID string) chan SSEEvent {
	b.mu.Lock()
	ch := make(chan SSEEvent, 64)
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string]chan SSEEvent)
	}
	b.topics[topic][clientID] = ch
	b.clients++
	n := b.clients
	b.mu.Unlock()

	slog.Debug("sse: client subscribed", "topic", topic, "client", clientID, "total", n)
	b.changed(n)
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *SSEBroadcaster) Unsubscribe(topic, clientID string) {
	b.mu.Lock()
	ch, ok := b.topics[topic][clientID]
	if ok {
		close(ch)
		delete(b.topics[topic], clientID)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
		b.clients--
	}
	n := b.clients
	b.mu.Unlock()

	if ok {
		slog.Debug("sse: client unsubscribed", "topic", topic, "client", clientID, "remaining", n)
		b.changed(n)
	}
}

// CloseTopic disconnects every client of topic.
func (b *SSEBroadcaster) CloseTopic(topic string) {
	b.mu.Lock()
	clients := b.topics[topic]
	for _, ch := range clients {
		close(ch)
	}
	b.clients -= len(clients)
	delete(b.topics, topic)
	n := b.clients
	b.mu.Unlock()

	if len(clients) > 0 {
		b.changed(n)
	}
}

// Publish sends an event to every client of topic. If a client's channel
// is full the event is dropped for that client (non-blocking send).
func (b *SSEBroadcaster) Publish(topic string, event SSEEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.topics[topic] {
		select {
		case ch <- event:
		default:
			slog.Warn("sse: dropping event for slow client", "event", event.Event, "client", id)
		}
	}
}

// ClientCount returns the number of connected clients.
func (b *SSEBroadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clients
}

func (b *SSEBroadcaster) changed(n int) {
	if b.OnChange != nil {
		b.OnChange(n)
	}
}

// ---------------------------------------------------------------------------
// Camera over SSE
// ---------------------------------------------------------------------------

// Camera event names understood by the page script.
const (
	EventZoomToFit = "zoom_to_fit"
	EventCenterAt  = "center_at"
	EventColors    = "colors"
	EventHeartbeat = "heartbeat"
)

type zoomToFitEvent struct {
	DurationMs int64 `json:"duration_ms"`
	PaddingPx  int   `json:"padding_px"`
	// NodeIDs restricts the fit; empty means every node.
	NodeIDs []int `json:"node_ids,omitempty"`
}

type centerAtEvent struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	DurationMs int64   `json:"duration_ms"`
}

// sseCamera is a view.Camera that forwards commands to the browser clients
// of one session. A later command supersedes an in-flight one on the
// client side.
type sseCamera struct {
	b       *SSEBroadcaster
	topic   string
	nodeIDs []int
}

// ZoomToFit implements view.Camera.
func (c *sseCamera) ZoomToFit(d time.Duration, paddingPx int, keep func(int) bool) {
	evt := zoomToFitEvent{DurationMs: d.Milliseconds(), PaddingPx: paddingPx}
	if keep != nil {
		evt.NodeIDs = []int{}
		for _, id := range c.nodeIDs {
			if keep(id) {
				evt.NodeIDs = append(evt.NodeIDs, id)
			}
		}
	}
	c.b.Publish(c.topic, SSEEvent{Event: EventZoomToFit, Data: evt})
}

// CenterAt implements view.Camera.
func (c *sseCamera) CenterAt(p layout.Point, d time.Duration) {
	c.b.Publish(c.topic, SSEEvent{
		Event: EventCenterAt,
		Data:  centerAtEvent{X: p.X, Y: p.Y, DurationMs: d.Milliseconds()},
	})
}

var _ view.Camera = (*sseCamera)(nil)

// ---------------------------------------------------------------------------
// HTTP handler GET /api/sessions/{id}/events
// ---------------------------------------------------------------------------

// handleSessionEvents streams a session's camera commands and colour
// overrides as Server-Sent Events.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "SSE_NOT_SUPPORTED",
			"streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	clientID := uuid.New().String()
	ch := s.sse.Subscribe(sess.ID, clientID)
	defer s.sse.Unsubscribe(sess.ID, clientID)

	// An open page keeps its session alive.
	detach := sess.Attach()
	defer detach()

	// Late joiners start from the current highlight.
	if err := writeSSEEvent(w, flusher, SSEEvent{Event: EventColors, Data: sess.NodeColors()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-ch:
			if !ok {
				return // session ended
			}
			if err := writeSSEEvent(w, flusher, evt); err != nil {
				return
			}

		case t := <-heartbeat.C:
			hb := SSEEvent{
				Event: EventHeartbeat,
				Data:  map[string]int64{"t": t.Unix()},
			}
			if err := writeSSEEvent(w, flusher, hb); err != nil {
				return
			}
		}
	}
}

// writeSSEEvent formats and writes a single SSE frame.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, evt SSEEvent) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, data)
	if err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// newSessionCamera builds the SSE camera for a session over the given
// node ids.
func (s *Server) newSessionCamera(nodeIDs []int) func(id string) view.Camera {
	return func(id string) view.Camera {
		return &sseCamera{b: s.sse, topic: id, nodeIDs: nodeIDs}
	}
}
