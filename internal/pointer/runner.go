package pointer

import (
	"context"
	"sync"
	"time"

	"github.com/anyclick/anyclick/internal/debug"
)

// FrameInterval is the simulation tick, roughly one animation frame.
const FrameInterval = 16 * time.Millisecond

// Frame is one published kart frame, the shape the browser sprite
// consumes.
type Frame struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Speed float64 `json:"speed"`
}

// Sink receives published frames. Called from the runner goroutine.
type Sink func(Frame)

// Runner ticks an engine at the frame interval and publishes the
// resulting frames. Input arrives asynchronously from key events; the
// runner samples the latest state each tick.
type Runner struct {
	engine *Engine
	sink   Sink

	mu    sync.Mutex
	input Input

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner wraps an engine. The sink may be nil.
func NewRunner(engine *Engine, sink Sink) *Runner {
	return &Runner{engine: engine, sink: sink}
}

// SetInput records the current directional key state.
func (r *Runner) SetInput(in Input) {
	r.mu.Lock()
	r.input = in
	r.mu.Unlock()
}

// Start launches the tick loop. It returns immediately; the loop stops
// when ctx is canceled or Stop is called. Starting a running runner is
// a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	debug.Log("pointer", "runner started")

	go r.loop(ctx)
}

// Stop halts the tick loop and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	debug.Log("pointer", "runner stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			r.mu.Lock()
			in := r.input
			r.mu.Unlock()

			st := r.engine.Step(in, dt)
			if r.sink != nil && r.engine.Mode() == ModeFun {
				r.sink(Frame{X: st.X, Y: st.Y, Angle: st.Angle, Speed: st.Speed()})
			}
		}
	}
}
