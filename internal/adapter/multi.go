package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/payload"
)

// allFailedMessage is the aggregate error when no adapter succeeded.
const allFailedMessage = "All adapters failed"

// Multi fans one payload out to every child adapter concurrently, waits
// for all to settle, and succeeds if at least one child succeeded. The
// reported id/url come from the first successful child in construction
// order, making the combined result deterministic regardless of
// completion order.
type Multi struct {
	adapters []Adapter
}

// NewMulti builds a fan-out over the given adapters.
func NewMulti(adapters ...Adapter) *Multi {
	return &Multi{adapters: adapters}
}

func (m *Multi) Name() string { return "multi" }

// Submit dispatches to all children and aggregates.
func (m *Multi) Submit(ctx context.Context, fb *payload.Feedback) Result {
	if len(m.adapters) == 0 {
		return failf("no adapters configured")
	}

	results := make([]Result, len(m.adapters))
	var wg sync.WaitGroup
	for i, a := range m.adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			results[i] = a.Submit(ctx, fb)
			if results[i].Success {
				debug.Log("adapter", "%s accepted feedback %s", a.Name(), fb.ID)
			} else {
				debug.Warn("adapter", "%s rejected feedback %s: %s", a.Name(), fb.ID, results[i].Error)
			}
		}(i, a)
	}
	wg.Wait()

	for _, r := range results {
		if r.Success {
			return r
		}
	}

	var details []string
	for i, r := range results {
		details = append(details, fmt.Sprintf("%s: %s", m.adapters[i].Name(), r.Error))
	}
	debug.Error("adapter", "all adapters failed for feedback %s: %s", fb.ID, strings.Join(details, "; "))

	return Result{Success: false, Error: allFailedMessage}
}
