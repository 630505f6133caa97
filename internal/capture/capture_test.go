package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeShot builds a data URL whose decoded size is roughly n bytes.
func fakeShot(n int) Shot {
	raw := make([]byte, n)
	return Shot{
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
		Width:   100,
		Height:  100,
	}
}

func TestCaptureAllSuccess(t *testing.T) {
	r := RendererFunc(func(ctx context.Context, target Target) (Shot, error) {
		return fakeShot(30), nil
	})

	res := CaptureAll(context.Background(), r)

	if len(res.Shots) != 3 {
		t.Fatalf("expected 3 shots, got %d", len(res.Shots))
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
	for _, target := range Targets {
		if res.Shots[target].ByteSize == 0 {
			t.Errorf("%s shot missing byte size estimate", target)
		}
	}
}

func TestCaptureAllPartialFailure(t *testing.T) {
	r := RendererFunc(func(ctx context.Context, target Target) (Shot, error) {
		if target == TargetViewport {
			return Shot{}, errors.New("cross-origin canvas")
		}
		return fakeShot(10), nil
	})

	res := CaptureAll(context.Background(), r)

	if len(res.Shots) != 2 {
		t.Errorf("expected 2 shots, got %d", len(res.Shots))
	}
	if res.Errors[TargetViewport] != "cross-origin canvas" {
		t.Errorf("expected viewport error, got %v", res.Errors)
	}
	// Invariant: an error key never also has a shot.
	if res.Has(TargetViewport) {
		t.Error("viewport has both error and shot")
	}
}

func TestCaptureAllAllFail(t *testing.T) {
	r := RendererFunc(func(ctx context.Context, target Target) (Shot, error) {
		return Shot{}, fmt.Errorf("%s unrenderable", target)
	})

	res := CaptureAll(context.Background(), r)

	if len(res.Shots) != 0 {
		t.Errorf("expected no shots, got %d", len(res.Shots))
	}
	if len(res.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(res.Errors))
	}
}

func TestEstimateBytes(t *testing.T) {
	raw := make([]byte, 300)
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	got := EstimateBytes(url)
	if got != 300 {
		t.Errorf("EstimateBytes = %d, want 300", got)
	}

	// A bare base64 string without the data: prefix still estimates.
	if EstimateBytes(strings.Repeat("A", 4)) != 3 {
		t.Error("expected 3 bytes for 4 base64 chars")
	}
}

func TestTrimToBudgetDropsLargestOptionalFirst(t *testing.T) {
	res := Result{Shots: map[Target]Shot{
		TargetElement:   {ByteSize: 100},
		TargetContainer: {ByteSize: 200},
		TargetViewport:  {ByteSize: 500},
	}}

	res.TrimToBudget(450)

	if res.Has(TargetViewport) {
		t.Error("viewport (largest optional) should be dropped first")
	}
	if !res.Has(TargetContainer) || !res.Has(TargetElement) {
		t.Error("container and element should survive")
	}
}

func TestTrimToBudgetNeverDropsElement(t *testing.T) {
	res := Result{Shots: map[Target]Shot{
		TargetElement:   {ByteSize: 1000},
		TargetContainer: {ByteSize: 200},
		TargetViewport:  {ByteSize: 300},
	}}

	res.TrimToBudget(500)

	if !res.Has(TargetElement) {
		t.Error("element shot must never be dropped")
	}
	if res.Has(TargetContainer) || res.Has(TargetViewport) {
		t.Error("both optional shots should be dropped")
	}
	// Still over budget, but nothing more to trim.
	if res.TotalBytes() != 1000 {
		t.Errorf("TotalBytes = %d, want 1000", res.TotalBytes())
	}
}

func TestTrimToBudgetTieDropsContainer(t *testing.T) {
	res := Result{Shots: map[Target]Shot{
		TargetContainer: {ByteSize: 300},
		TargetViewport:  {ByteSize: 300},
	}}

	res.TrimToBudget(400)

	if res.Has(TargetContainer) {
		t.Error("container should be dropped on a size tie")
	}
	if !res.Has(TargetViewport) {
		t.Error("viewport should survive the tie")
	}
}

func TestTrimToBudgetNoBudget(t *testing.T) {
	res := Result{Shots: map[Target]Shot{TargetViewport: {ByteSize: 1 << 20}}}
	res.TrimToBudget(0)
	if !res.Has(TargetViewport) {
		t.Error("zero budget must mean unlimited")
	}
}
