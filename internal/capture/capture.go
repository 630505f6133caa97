// Package capture orchestrates screenshot rendering for the three capture
// targets (element, container, viewport) and accounts for their size
// against the payload budget.
package capture

import (
	"context"
	"strings"
	"sync"

	"github.com/anyclick/anyclick/internal/debug"
)

// Target identifies one screenshot rendering.
type Target string

const (
	TargetElement   Target = "element"
	TargetContainer Target = "container"
	TargetViewport  Target = "viewport"
)

// Targets lists all capture targets in canonical order.
var Targets = []Target{TargetElement, TargetContainer, TargetViewport}

// Shot is one successful capture.
type Shot struct {
	DataURL  string `json:"dataUrl"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	ByteSize int    `json:"byteSize"`
}

// Result aggregates the captures of one submission. A target appears in
// Shots or in Errors, never both.
type Result struct {
	Shots  map[Target]Shot   `json:"shots,omitempty"`
	Errors map[Target]string `json:"errors,omitempty"`
}

// Renderer produces image data for a capture target. The production
// implementation round-trips through the capture client in the browser
// (html2canvas); tests substitute fakes.
type Renderer interface {
	Render(ctx context.Context, target Target) (Shot, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, target Target) (Shot, error)

func (f RendererFunc) Render(ctx context.Context, target Target) (Shot, error) {
	return f(ctx, target)
}

// CaptureAll renders every target concurrently. Failures are independent:
// one unrenderable target (gradient text, cross-origin canvas) never
// blocks the others. Missing byte sizes are estimated from the data URL.
func CaptureAll(ctx context.Context, r Renderer) Result {
	res := Result{
		Shots:  make(map[Target]Shot),
		Errors: make(map[Target]string),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, target := range Targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()

			shot, err := r.Render(ctx, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				debug.Log("capture", "render %s failed: %v", target, err)
				res.Errors[target] = err.Error()
				return
			}
			if shot.ByteSize == 0 {
				shot.ByteSize = EstimateBytes(shot.DataURL)
			}
			res.Shots[target] = shot
		}(target)
	}

	wg.Wait()
	return res
}

// EstimateBytes estimates the decoded size of a data-URL image from the
// length of its base64 body (4 base64 chars encode 3 bytes).
func EstimateBytes(dataURL string) int {
	body := dataURL
	if i := strings.Index(dataURL, ","); i >= 0 {
		body = dataURL[i+1:]
	}
	return len(body) * 3 / 4
}

// TotalBytes sums the estimated sizes of all available shots.
func (r *Result) TotalBytes() int {
	total := 0
	for _, s := range r.Shots {
		total += s.ByteSize
	}
	return total
}

// Has reports whether a shot exists for the target.
func (r *Result) Has(target Target) bool {
	_, ok := r.Shots[target]
	return ok
}

// TrimToBudget drops optional captures until the total estimated size
// fits maxBytes. The policy is deterministic: of the container and
// viewport shots, the larger is dropped first (container wins a size
// tie); the element shot is never dropped. maxBytes <= 0 means no budget.
func (r *Result) TrimToBudget(maxBytes int) {
	if maxBytes <= 0 {
		return
	}

	for r.TotalBytes() > maxBytes {
		drop, ok := r.largestOptional()
		if !ok {
			return
		}
		debug.Log("capture", "dropping %s capture (%d bytes) to meet budget %d",
			drop, r.Shots[drop].ByteSize, maxBytes)
		delete(r.Shots, drop)
	}
}

// largestOptional picks the droppable shot: the larger of container and
// viewport, container first on a tie.
func (r *Result) largestOptional() (Target, bool) {
	c, hasC := r.Shots[TargetContainer]
	v, hasV := r.Shots[TargetViewport]

	switch {
	case hasC && hasV:
		if v.ByteSize > c.ByteSize {
			return TargetViewport, true
		}
		return TargetContainer, true
	case hasC:
		return TargetContainer, true
	case hasV:
		return TargetViewport, true
	}
	return "", false
}
