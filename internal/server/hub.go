package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anyclick/anyclick/internal/capture"
	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/pointer"
)

// ErrNoClients is returned when a render is requested with no page
// connected.
var ErrNoClients = errors.New("no capture clients connected")

// wsMessage is the envelope for both directions of the channel.
type wsMessage struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Target string          `json:"target,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`

	// Render replies.
	DataURL string `json:"dataUrl,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`

	// Pointer input state.
	Up    bool `json:"up,omitempty"`
	Down  bool `json:"down,omitempty"`
	Left  bool `json:"left,omitempty"`
	Right bool `json:"right,omitempty"`
}

type renderReply struct {
	shot capture.Shot
	err  error
}

// wsConn serializes writes to one websocket connection.
type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (wc *wsConn) writeJSON(v any) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.c.WriteJSON(v)
}

// Hub owns the websocket connections to instrumented pages. Screenshots
// are rendered in the browser: the hub sends a render request to a
// connected page and waits for the reply. Toast and pointer-frame
// broadcasts fan out to every page.
type Hub struct {
	origins []string

	conns     sync.Map // *wsConn -> struct{}
	pending   sync.Map // render id -> chan renderReply
	connected atomic.Int64
	closed    atomic.Bool

	// OnInput, when set, receives fun-mode key state from pages.
	OnInput func(pointer.Input)

	// OnSnapshot, when set, receives the linked element snapshot sent on
	// right-click. Its return value, if non-nil, is written back to the
	// sending page as a highlight patch.
	OnSnapshot func(*dom.Element) any
}

// NewHub builds a hub allowing the given extra origins.
func NewHub(origins []string) *Hub {
	return &Hub{origins: origins}
}

// Connected returns the number of attached pages.
func (h *Hub) Connected() int64 { return h.connected.Load() }

// HandleWS upgrades one page connection and pumps its messages.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.closed.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			// Localhost pages and configured origins only; the capture
			// channel carries DOM snapshots.
			return originAllowed(origin, h.origins)
		},
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Warn("server", "websocket upgrade failed: %v", err)
		return
	}

	wc := &wsConn{c: c}
	h.conns.Store(wc, struct{}{})
	h.connected.Add(1)
	debug.Log("server", "capture client connected (%d active)", h.connected.Load())

	defer func() {
		h.conns.Delete(wc)
		h.connected.Add(-1)
		c.Close()
		debug.Log("server", "capture client disconnected (%d active)", h.connected.Load())
	}()

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Warn("server", "websocket read failed: %v", err)
			}
			return
		}
		h.dispatch(wc, &msg)
	}
}

func (h *Hub) dispatch(wc *wsConn, msg *wsMessage) {
	switch msg.Type {
	case "elementSelected":
		h.handleSnapshot(wc, msg)
	case "rendered":
		h.resolveRender(msg.ID, renderReply{shot: capture.Shot{
			DataURL:  msg.DataURL,
			Width:    msg.Width,
			Height:   msg.Height,
			ByteSize: capture.EstimateBytes(msg.DataURL),
		}})
	case "renderError":
		h.resolveRender(msg.ID, renderReply{err: errors.New(msg.Error)})
	case "pointerInput":
		if h.OnInput != nil {
			h.OnInput(pointer.Input{Up: msg.Up, Down: msg.Down, Left: msg.Left, Right: msg.Right})
		}
	default:
		debug.Trace("server", "ignoring websocket message type %q", msg.Type)
	}
}

// handleSnapshot decodes an element snapshot, hands it to the server,
// and writes the resulting highlight patch back to the sending page.
func (h *Hub) handleSnapshot(wc *wsConn, msg *wsMessage) {
	if h.OnSnapshot == nil {
		return
	}

	var root dom.Element
	if err := json.Unmarshal(msg.Data, &root); err != nil {
		debug.Warn("server", "bad element snapshot: %v", err)
		return
	}
	root.Link()

	patch := h.OnSnapshot(&root)
	if patch == nil {
		return
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		debug.Error("server", "highlight patch marshal failed: %v", err)
		return
	}
	if err := wc.writeJSON(wsMessage{Type: "highlight", Data: raw}); err != nil {
		debug.Warn("server", "highlight patch write failed: %v", err)
	}
}

// resolveRender completes a pending render. Replies arriving after the
// waiter gave up are dropped.
func (h *Hub) resolveRender(id string, reply renderReply) {
	v, ok := h.pending.LoadAndDelete(id)
	if !ok {
		debug.Trace("server", "dropping stale render reply %s", id)
		return
	}
	v.(chan renderReply) <- reply
}

// Broadcast sends one typed message to every connected page.
func (h *Hub) Broadcast(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		debug.Error("server", "broadcast marshal failed: %v", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}

	h.conns.Range(func(key, _ any) bool {
		wc := key.(*wsConn)
		if err := wc.writeJSON(msg); err != nil {
			debug.Warn("server", "broadcast write failed: %v", err)
		}
		return true
	})
}

// RequestRender asks a connected page to render one capture target and
// waits for the reply or ctx expiry.
func (h *Hub) RequestRender(ctx context.Context, target capture.Target) (capture.Shot, error) {
	var wc *wsConn
	h.conns.Range(func(key, _ any) bool {
		wc = key.(*wsConn)
		return false
	})
	if wc == nil {
		return capture.Shot{}, ErrNoClients
	}

	id := uuid.NewString()
	ch := make(chan renderReply, 1)
	h.pending.Store(id, ch)
	defer h.pending.Delete(id)

	if err := wc.writeJSON(wsMessage{Type: "render", ID: id, Target: string(target)}); err != nil {
		return capture.Shot{}, fmt.Errorf("render request failed: %w", err)
	}

	select {
	case <-ctx.Done():
		return capture.Shot{}, ctx.Err()
	case reply := <-ch:
		return reply.shot, reply.err
	}
}

// Renderer adapts the hub to the capture interface.
func (h *Hub) Renderer() capture.Renderer {
	return capture.RendererFunc(h.RequestRender)
}

// Close drops every connection and refuses new ones.
func (h *Hub) Close() {
	h.closed.Store(true)
	h.conns.Range(func(key, _ any) bool {
		key.(*wsConn).c.Close()
		h.conns.Delete(key)
		return true
	})
}
