package adapter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anyclick/anyclick/internal/payload"
)

// stub is a canned adapter for fan-out tests.
type stub struct {
	name   string
	result Result
	delay  time.Duration
	calls  atomic.Int32
}

func (s *stub) Name() string { return s.name }

func (s *stub) Submit(ctx context.Context, fb *payload.Feedback) Result {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result
}

func testFeedback() *payload.Feedback {
	return &payload.Feedback{
		ID:      "fb-1",
		Type:    payload.TypeBug,
		Element: payload.ElementInfo{Selector: "#x", Tag: "div"},
		Page:    payload.PageInfo{URL: "https://example.com"},
	}
}

func TestMultiOneSuccessWins(t *testing.T) {
	a := &stub{name: "a", result: Result{Success: false, Error: "down"}}
	b := &stub{name: "b", result: Result{Success: true, ID: "42", URL: "https://issues/42"}}
	c := &stub{name: "c", result: Result{Success: false, Error: "down"}}

	got := NewMulti(a, b, c).Submit(context.Background(), testFeedback())

	if !got.Success {
		t.Fatalf("expected success, got %+v", got)
	}
	if got.ID != "42" || got.URL != "https://issues/42" {
		t.Errorf("expected b's id/url, got %+v", got)
	}

	// All children were dispatched despite the failures.
	for _, s := range []*stub{a, b, c} {
		if s.calls.Load() != 1 {
			t.Errorf("%s called %d times, want 1", s.name, s.calls.Load())
		}
	}
}

func TestMultiFirstSuccessInOrder(t *testing.T) {
	// The later adapter finishes first, but construction order decides.
	slow := &stub{name: "slow", result: Result{Success: true, ID: "first"}, delay: 30 * time.Millisecond}
	fast := &stub{name: "fast", result: Result{Success: true, ID: "second"}}

	got := NewMulti(slow, fast).Submit(context.Background(), testFeedback())
	if got.ID != "first" {
		t.Errorf("expected construction-order winner, got %+v", got)
	}
}

func TestMultiAllFail(t *testing.T) {
	a := &stub{name: "a", result: Result{Success: false, Error: "x"}}
	b := &stub{name: "b", result: Result{Success: false, Error: "y"}}

	got := NewMulti(a, b).Submit(context.Background(), testFeedback())

	if got.Success {
		t.Fatal("expected failure")
	}
	if got.Error != "All adapters failed" {
		t.Errorf("error = %q, want %q", got.Error, "All adapters failed")
	}
}

func TestMultiNoAdapters(t *testing.T) {
	got := NewMulti().Submit(context.Background(), testFeedback())
	if got.Success {
		t.Error("empty fan-out must fail")
	}
}

func TestResultRedacted(t *testing.T) {
	r := Result{Success: false, Error: "token abc123 rejected by upstream"}
	red := r.Redacted()
	if red.Error == r.Error {
		t.Error("redaction left upstream error intact")
	}

	okRes := Result{Success: true, ID: "1"}
	if okRes.Redacted() != okRes {
		t.Error("success results must pass through redaction unchanged")
	}
}
