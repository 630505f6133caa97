package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/capture"
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/toast"
)

// testSnapshotTree builds main > div.card > (h2, button#buy, p) with the
// button marked as the right-clicked target.
func testSnapshotTree() *dom.Element {
	target := &dom.Element{
		Tag:     "button",
		ID:      "buy",
		Classes: []string{"btn", "btn-primary"},
		Attributes: map[string]string{
			"data-anyclick-target": "true",
			"data-sku":             "42",
		},
		InnerText: strings.Repeat("order ", 120),
	}
	card := &dom.Element{
		Tag:     "div",
		Classes: []string{"card"},
		Children: []*dom.Element{
			{Tag: "h2"},
			target,
			{Tag: "p"},
		},
	}
	return &dom.Element{Tag: "main", Children: []*dom.Element{card}}
}

func snapshotRequest(comment string) map[string]any {
	return map[string]any{
		"type":     "bug",
		"comment":  comment,
		"snapshot": testSnapshotTree(),
		"page":     map[string]any{"url": "https://shop.example", "timestamp": time.Now()},
	}
}

func TestFeedbackFromSnapshot(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: true, ID: "7"}}
	s := newTestServer(t, Options{Adapter: fake}, Config{})

	w := postJSON(t, s.Handler(), "/feedback", snapshotRequest("button does nothing"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if fake.got == nil {
		t.Fatal("adapter never received the assembled payload")
	}

	el := fake.got.Element
	if el.Selector != "#buy" {
		t.Errorf("selector = %q", el.Selector)
	}
	text := []rune(el.InnerText)
	if len(text) != 500 || !strings.HasSuffix(el.InnerText, "…") {
		t.Errorf("innerText not truncated: %d runes", len(text))
	}
	if len(el.Ancestors) != 2 || el.Ancestors[0].Tag != "div" || el.Ancestors[1].Tag != "main" {
		t.Errorf("ancestors = %+v", el.Ancestors)
	}
	if el.DataAttributes["data-sku"] != "42" {
		t.Errorf("dataAttributes = %+v", el.DataAttributes)
	}
	if _, leaked := el.DataAttributes["data-anyclick-target"]; leaked {
		t.Error("snapshot marker leaked into the payload")
	}
	if fake.got.Comment != "button does nothing" || fake.got.ID == "" {
		t.Errorf("payload = %+v", fake.got)
	}
}

func TestFeedbackSnapshotCooldown(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: true}}
	s := newTestServer(t, Options{Adapter: fake}, Config{})
	h := s.Handler()

	w := postJSON(t, h, "/feedback", snapshotRequest("first"))
	if w.Code != http.StatusOK {
		t.Fatalf("first status = %d", w.Code)
	}
	w = postJSON(t, h, "/feedback", snapshotRequest("again"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("repeat status = %d, want 429", w.Code)
	}
}

func TestFeedbackSnapshotRequiresType(t *testing.T) {
	s := newTestServer(t, Options{Adapter: &fakeAdapter{}}, Config{})

	body := snapshotRequest("no type")
	delete(body, "type")
	w := postJSON(t, s.Handler(), "/feedback", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// dialWS connects a capture client to a running test server.
func dialWS(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/anyclick/ws"
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

// wsEnvelope mirrors the wire messages a page sees.
type wsEnvelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// readMessageOfType pumps the connection until a message of the wanted
// type arrives.
func readMessageOfType(t *testing.T, conn *websocket.Conn, want string) wsEnvelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsEnvelope
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading for %q message: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestSnapshotHighlightOverWS(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	tree, err := json.Marshal(testSnapshotTree())
	if err != nil {
		t.Fatalf("marshal tree: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "elementSelected", "data": json.RawMessage(tree)}); err != nil {
		t.Fatalf("send snapshot: %v", err)
	}

	msg := readMessageOfType(t, conn, "highlight")
	var patch highlightPatch
	if err := json.Unmarshal(msg.Data, &patch); err != nil {
		t.Fatalf("decode patch: %v", err)
	}
	if patch.Target != "#buy" {
		t.Errorf("target = %q", patch.Target)
	}
	// The card has three visible children, so it wins on structure.
	if patch.Container == "" {
		t.Error("container missing from patch")
	}
	if !strings.Contains(patch.CSS, "anyclick-highlight") {
		t.Errorf("css = %q", patch.CSS)
	}
	if !s.highlighter.Handle().Active() {
		t.Error("stylesheet not acquired server-side")
	}
}

func TestFeedbackCapturesScreenshots(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: true}}
	// Budget fits exactly one 6-byte shot, forcing the optional targets
	// to be dropped.
	scopes := config.NewScopeStack(&config.Config{
		Capture: &config.CaptureConfig{MaxTotalBytes: 7},
	})
	s := newTestServer(t, Options{Adapter: fake, Scopes: scopes}, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Page side: answer every render request with a tiny image.
	go func() {
		for {
			var msg struct {
				Type   string `json:"type"`
				ID     string `json:"id"`
				Target string `json:"target"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "render" {
				continue
			}
			conn.WriteJSON(map[string]any{
				"type":    "rendered",
				"id":      msg.ID,
				"target":  msg.Target,
				"dataUrl": "data:image/png;base64,aGVsbG8=",
				"width":   10,
				"height":  5,
			})
		}
	}()

	data, _ := json.Marshal(snapshotRequest("capture me"))
	resp, err := http.Post(srv.URL+"/feedback", "application/json", strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	if fake.got == nil || fake.got.Screenshots == nil {
		t.Fatal("payload missing screenshots")
	}
	shots := fake.got.Screenshots
	if !shots.Has(capture.TargetElement) {
		t.Error("element shot missing")
	}
	if shots.Has(capture.TargetContainer) || shots.Has(capture.TargetViewport) {
		t.Errorf("optional shots survived the budget: %+v", shots.Shots)
	}
}

func TestWSRejectsDisallowedOrigin(t *testing.T) {
	s := newTestServer(t, Options{}, Config{Origins: []string{"https://allowed.example"}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if conn, _, err := dialWS(t, srv, "https://evil.example"); err == nil {
		conn.Close()
		t.Fatal("cross-origin upgrade succeeded")
	}

	conn, _, err := dialWS(t, srv, "https://allowed.example")
	if err != nil {
		t.Fatalf("configured origin rejected: %v", err)
	}
	conn.Close()

	conn, _, err = dialWS(t, srv, "http://localhost:3000")
	if err != nil {
		t.Fatalf("localhost origin rejected: %v", err)
	}
	conn.Close()
}

func TestToastBroadcastCarriesPosition(t *testing.T) {
	toasts := toast.NewManager(toast.Config{Position: toast.PositionTopLeft})
	s := newTestServer(t, Options{Toasts: toasts}, Config{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := postJSON(t, s.Handler(), "/api/anyclick/notify", map[string]any{"message": "deploy done"})
	if w.Code != http.StatusOK {
		t.Fatalf("notify status = %d", w.Code)
	}

	msg := readMessageOfType(t, conn, "toasts")
	var update struct {
		Position string        `json:"position"`
		Toasts   []toast.Toast `json:"toasts"`
	}
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.Position != toast.PositionTopLeft {
		t.Errorf("position = %q", update.Position)
	}
	if len(update.Toasts) != 1 || update.Toasts[0].Message != "deploy done" {
		t.Errorf("toasts = %+v", update.Toasts)
	}
}
