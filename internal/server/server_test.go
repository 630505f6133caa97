package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/archive"
	"github.com/anyclick/anyclick/internal/history"
	"github.com/anyclick/anyclick/internal/payload"
)

type fakeAdapter struct {
	result adapter.Result
	got    *payload.Feedback
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Submit(ctx context.Context, fb *payload.Feedback) adapter.Result {
	f.got = fb
	return f.result
}

func newTestServer(t *testing.T, opts Options, cfg Config) *Server {
	t.Helper()
	s := New(cfg, opts)
	t.Cleanup(func() { s.toasts.Close() })
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func validFeedback() map[string]any {
	return map[string]any{
		"type":    "bug",
		"comment": "misaligned button",
		"element": map[string]any{"selector": "#buy", "tag": "button"},
		"page":    map[string]any{"url": "https://shop.example", "timestamp": time.Now()},
	}
}

func TestFeedbackSuccess(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: true, ID: "9", URL: "https://t/9"}}
	s := newTestServer(t, Options{Adapter: fake}, Config{})

	w := postJSON(t, s.Handler(), "/feedback", validFeedback())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var res adapter.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Success || res.ID != "9" {
		t.Errorf("result = %+v", res)
	}
	if fake.got == nil || fake.got.ID == "" {
		t.Error("dispatched feedback missing generated id")
	}
}

func TestFeedbackValidation(t *testing.T) {
	s := newTestServer(t, Options{Adapter: &fakeAdapter{}}, Config{})

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing type", map[string]any{
			"element": map[string]any{"selector": "#x"},
			"page":    map[string]any{"url": "https://x"},
		}},
		{"missing element", map[string]any{
			"type": "bug",
			"page": map[string]any{"url": "https://x"},
		}},
		{"missing page", map[string]any{
			"type":    "bug",
			"element": map[string]any{"selector": "#x"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, s.Handler(), "/feedback", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("expected error body, got %s", w.Body)
			}
		})
	}
}

func TestFeedbackFailureRedactedInProduction(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: false, Error: "github returned 401: bad token"}}
	s := newTestServer(t, Options{Adapter: fake}, Config{Dev: false})

	w := postJSON(t, s.Handler(), "/feedback", validFeedback())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "bad token") {
		t.Errorf("upstream error leaked: %s", w.Body)
	}
}

func TestFeedbackFailureVerbatimInDev(t *testing.T) {
	fake := &fakeAdapter{result: adapter.Result{Success: false, Error: "github returned 401: bad token"}}
	s := newTestServer(t, Options{Adapter: fake}, Config{Dev: true})

	w := postJSON(t, s.Handler(), "/feedback", validFeedback())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "bad token") {
		t.Errorf("dev mode should keep the upstream error: %s", w.Body)
	}
}

func TestFeedbackArchived(t *testing.T) {
	arch := archive.New(t.TempDir())
	fake := &fakeAdapter{result: adapter.Result{Success: true, ID: "1"}}
	s := newTestServer(t, Options{Adapter: fake, Archive: arch}, Config{})

	w := postJSON(t, s.Handler(), "/feedback", validFeedback())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	recs, err := arch.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("archived %d records, want 1", len(recs))
	}
	if !recs[0].Result.Success {
		t.Errorf("archived result = %+v", recs[0].Result)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestHistorySaveThenLoad(t *testing.T) {
	s := newTestServer(t, Options{History: history.NewStore()}, Config{})
	h := s.Handler()

	now := time.Now()
	w := postJSON(t, h, "/api/anyclick/chat/history", map[string]any{
		"action": "save",
		"messages": []map[string]any{
			{"id": "m1", "role": "user", "content": "hi", "timestamp": now},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", w.Code, w.Body)
	}
	var saved saveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode save: %v", err)
	}
	if !saved.Success || saved.MessageCount != 1 {
		t.Errorf("save response = %+v", saved)
	}
	if !saved.ExpiresAt.After(now) {
		t.Errorf("expiresAt = %v not in the future", saved.ExpiresAt)
	}

	w = postJSON(t, h, "/api/anyclick/chat/history", map[string]any{"action": "load"})
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d", w.Code)
	}
	var loaded loadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("decode load: %v", err)
	}
	if !loaded.Found {
		t.Fatal("history not found after save")
	}
	if len(loaded.Messages) != 1 || loaded.Messages[0].ID != "m1" || loaded.Messages[0].Content != "hi" {
		t.Errorf("messages = %+v", loaded.Messages)
	}
}

func TestHistoryClear(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})
	h := s.Handler()

	postJSON(t, h, "/api/anyclick/chat/history", map[string]any{
		"action": "save",
		"messages": []map[string]any{
			{"id": "m1", "role": "user", "content": "hi", "timestamp": time.Now()},
		},
	})

	w := postJSON(t, h, "/api/anyclick/chat/history", map[string]any{"action": "clear"})
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}

	w = postJSON(t, h, "/api/anyclick/chat/history", map[string]any{"action": "load"})
	var loaded loadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.Found || len(loaded.Messages) != 0 {
		t.Errorf("history survived clear: %+v", loaded)
	}
}

func TestHistoryBadAction(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})
	w := postJSON(t, s.Handler(), "/api/anyclick/chat/history", map[string]any{"action": "drop"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHistoryKeyedByIP(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})
	h := s.Handler()

	save, _ := json.Marshal(map[string]any{
		"action": "save",
		"messages": []map[string]any{
			{"id": "m1", "role": "user", "content": "hi", "timestamp": time.Now()},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/anyclick/chat/history", bytes.NewReader(save))
	req.RemoteAddr = "10.0.0.1:4000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	// A different caller sees nothing.
	load, _ := json.Marshal(map[string]any{"action": "load"})
	req = httptest.NewRequest(http.MethodPost, "/api/anyclick/chat/history", bytes.NewReader(load))
	req.RemoteAddr = "10.0.0.2:4000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var loaded loadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.Found {
		t.Error("history leaked across caller IPs")
	}
}

func TestUploadRequiresToken(t *testing.T) {
	t.Setenv("UPLOADTHING_TOKEN", "")
	s := newTestServer(t, Options{}, Config{})

	w := postJSON(t, s.Handler(), "/api/uploadthing", map[string]any{"dataUrl": "data:image/png;base64,aGk="})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestUploadRejectsAmbiguousSource(t *testing.T) {
	s := newTestServer(t, Options{}, Config{UploadToken: "tok"})

	w := postJSON(t, s.Handler(), "/api/uploadthing", map[string]any{
		"url":     "https://example.com/a.png",
		"dataUrl": "data:image/png;base64,aGk=",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadRejectsEmptySource(t *testing.T) {
	s := newTestServer(t, Options{}, Config{UploadToken: "tok"})

	w := postJSON(t, s.Handler(), "/api/uploadthing", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestClientScriptServed(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})

	req := httptest.NewRequest(http.MethodGet, "/anyclick/client.js", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"/anyclick/ws", "html2canvas", "anyclickSubmit"} {
		if !strings.Contains(body, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestCORSAllowsLocalhost(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	s := newTestServer(t, Options{}, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q for unknown origin", got)
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, ct, err := decodeDataURL("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(data) != "hello" || ct != "image/png" {
		t.Errorf("got %q %q", data, ct)
	}

	if _, _, err := decodeDataURL("not-a-data-url"); err == nil {
		t.Error("expected error for malformed data url")
	}
}
