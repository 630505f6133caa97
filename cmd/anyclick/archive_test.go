package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anyclick/anyclick/internal/adapter"
	"github.com/anyclick/anyclick/internal/archive"
	"github.com/anyclick/anyclick/internal/payload"
)

type stubAdapter struct {
	result adapter.Result
	got    *payload.Feedback
}

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) Submit(ctx context.Context, fb *payload.Feedback) adapter.Result {
	s.got = fb
	return s.result
}

func archiveWithRecord(t *testing.T) *archive.Archive {
	t.Helper()
	arch := archive.New(t.TempDir())
	fb := &payload.Feedback{
		ID:        "fb-1",
		Type:      "bug",
		Element:   payload.ElementInfo{Selector: "#buy", Tag: "button"},
		Page:      payload.PageInfo{URL: "https://shop.example", Timestamp: time.Now()},
		CreatedAt: time.Now(),
	}
	if err := arch.Save(fb, adapter.Result{Success: false, Error: "github returned 502"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	return arch
}

func TestResendRecord(t *testing.T) {
	arch := archiveWithRecord(t)
	stub := &stubAdapter{result: adapter.Result{Success: true, ID: "44", URL: "https://t/44"}}

	res, err := resendRecord(context.Background(), arch, stub, "fb-1")
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if !res.Success || res.ID != "44" {
		t.Errorf("result = %+v", res)
	}
	if stub.got == nil || stub.got.ID != "fb-1" || stub.got.Element.Selector != "#buy" {
		t.Errorf("adapter received %+v", stub.got)
	}
}

func TestResendMissingRecord(t *testing.T) {
	arch := archive.New(t.TempDir())
	stub := &stubAdapter{result: adapter.Result{Success: true}}

	_, err := resendRecord(context.Background(), arch, stub, "nope")
	if !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if stub.got != nil {
		t.Error("adapter must not be called for a missing record")
	}
}

func TestFormatRecord(t *testing.T) {
	rec := &archive.Record{
		Feedback: &payload.Feedback{
			ID:      "fb-9",
			Type:    "bug",
			Element: payload.ElementInfo{Selector: "#nav"},
		},
		Result:     adapter.Result{Success: false, Error: "x"},
		ArchivedAt: time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
	}

	line := formatRecord(rec)
	for _, want := range []string{"fb-9", "2026-08-30 14:05", "bug", "failed", "#nav"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}
