// Package pointer implements the fun-mode kart cursor: a discrete-time
// physics simulation that drives a sprite around the page instead of the
// OS pointer. The browser client renders the sprite; this package owns
// the state and the integration step.
package pointer

import (
	"math"
	"sync"

	"github.com/anyclick/anyclick/internal/dom"
)

// Mode selects the pointer behavior.
type Mode string

const (
	// ModeNormal tracks the OS pointer 1:1. The engine is inert.
	ModeNormal Mode = "normal"

	// ModeFun runs the kart simulation.
	ModeFun Mode = "fun"

	// ModeCalm is reserved. It behaves like normal today.
	ModeCalm Mode = "calm"
)

// ValidMode reports whether m names a known mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeNormal, ModeFun, ModeCalm:
		return true
	}
	return false
}

// Default tuning. Invalid or missing config values fall back to these
// silently.
const (
	DefaultAcceleration  = 1200.0 // px/s²
	DefaultFriction      = 4.0    // fraction of velocity shed per second
	DefaultMaxSpeed      = 900.0  // px/s
	DefaultBounceDamping = 0.35

	// collisionPasses bounds the re-test loop after a reflection so a
	// kart wedged between surfaces cannot spin the frame forever.
	collisionPasses = 2
)

// Config tunes the simulation.
type Config struct {
	Mode Mode

	// Acceleration is applied toward the active input direction, px/s².
	Acceleration float64

	// Friction is the fraction of velocity shed per second with no
	// input active.
	Friction float64

	// MaxSpeed clamps the velocity magnitude, px/s.
	MaxSpeed float64

	// BounceDamping scales the reflected normal velocity component on
	// collision. 0 absorbs fully, 1 is perfectly elastic. Values
	// outside [0, 1] fall back to the default.
	BounceDamping float64

	// Track bounds the kart. Nil means the viewport.
	Track *dom.Rect

	// Viewport is the fallback track when Track is nil.
	Viewport dom.Rect

	// Obstacles, when set, returns the rectangles the kart bounces off.
	// Called once per step.
	Obstacles func() []dom.Rect
}

func (c Config) withDefaults() Config {
	if !ValidMode(c.Mode) {
		c.Mode = ModeNormal
	}
	if c.Acceleration <= 0 {
		c.Acceleration = DefaultAcceleration
	}
	if c.Friction <= 0 {
		c.Friction = DefaultFriction
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = DefaultMaxSpeed
	}
	if c.BounceDamping < 0 || c.BounceDamping > 1 {
		c.BounceDamping = DefaultBounceDamping
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		c.Viewport = dom.Rect{Width: 1920, Height: 1080}
	}
	return c
}

func (c Config) track() dom.Rect {
	if c.Track != nil && c.Track.Width > 0 && c.Track.Height > 0 {
		return *c.Track
	}
	return c.Viewport
}

// Input is the directional key state for one step.
type Input struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

func (in Input) active() bool { return in.Up || in.Down || in.Left || in.Right }

// direction returns the unit input vector, normalized on diagonals.
func (in Input) direction() (dx, dy float64) {
	if in.Left {
		dx -= 1
	}
	if in.Right {
		dx += 1
	}
	if in.Up {
		dy -= 1
	}
	if in.Down {
		dy += 1
	}
	if dx != 0 && dy != 0 {
		inv := 1 / math.Sqrt2
		dx *= inv
		dy *= inv
	}
	return dx, dy
}

// State is the kart state after a step.
type State struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Angle float64 `json:"angle"`
}

// Speed returns the velocity magnitude.
func (s State) Speed() float64 { return math.Hypot(s.VX, s.VY) }

// Engine holds the simulation state. Safe for concurrent use: the
// runner steps it while the server reconfigures it.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	st  State
}

// NewEngine builds an engine at the track center.
func NewEngine(cfg Config) *Engine {
	e := &Engine{cfg: cfg.withDefaults()}
	e.st = e.centered()
	return e
}

func (e *Engine) centered() State {
	t := e.cfg.track()
	return State{X: t.X + t.Width/2, Y: t.Y + t.Height/2}
}

// Mode returns the current mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Mode
}

// State returns the current kart state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st
}

// SetConfig swaps the configuration. Leaving fun mode resets the kart
// to rest at the track center; the sprite must not keep stale momentum
// when fun mode is re-entered later.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	wasFun := e.cfg.Mode == ModeFun
	e.cfg = cfg.withDefaults()
	if wasFun && e.cfg.Mode != ModeFun {
		e.st = e.centered()
	}
}

// Step advances the simulation by dt seconds under the given input and
// returns the new state. Outside fun mode the step is a no-op.
func (e *Engine) Step(in Input, dt float64) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.Mode != ModeFun || dt <= 0 {
		return e.st
	}
	// Clamp pathological frame deltas (tab was backgrounded).
	if dt > 0.1 {
		dt = 0.1
	}

	st := e.st
	cfg := e.cfg

	if in.active() {
		dx, dy := in.direction()
		st.VX += dx * cfg.Acceleration * dt
		st.VY += dy * cfg.Acceleration * dt
	} else {
		decay := 1 - cfg.Friction*dt
		if decay < 0 {
			decay = 0
		}
		st.VX *= decay
		st.VY *= decay
	}

	if speed := math.Hypot(st.VX, st.VY); speed > cfg.MaxSpeed {
		scale := cfg.MaxSpeed / speed
		st.VX *= scale
		st.VY *= scale
	}

	st.X += st.VX * dt
	st.Y += st.VY * dt

	var obstacles []dom.Rect
	if cfg.Obstacles != nil {
		obstacles = cfg.Obstacles()
	}
	resolveCollisions(&st, cfg.track(), obstacles, cfg.BounceDamping)

	if st.Speed() > 1 {
		st.Angle = math.Atan2(st.VY, st.VX)
	}

	e.st = st
	return st
}

// resolveCollisions reflects the kart off the track walls and obstacle
// rects. After any reflection the position is re-tested, so a fast kart
// pushed out of one surface into another still settles; the pass count
// is bounded.
func resolveCollisions(st *State, track dom.Rect, obstacles []dom.Rect, damping float64) {
	for pass := 0; pass < collisionPasses; pass++ {
		hit := false

		if st.X < track.X {
			st.X = track.X
			if st.VX < 0 {
				st.VX = -st.VX * damping
			}
			hit = true
		} else if st.X > track.Right() {
			st.X = track.Right()
			if st.VX > 0 {
				st.VX = -st.VX * damping
			}
			hit = true
		}
		if st.Y < track.Y {
			st.Y = track.Y
			if st.VY < 0 {
				st.VY = -st.VY * damping
			}
			hit = true
		} else if st.Y > track.Bottom() {
			st.Y = track.Bottom()
			if st.VY > 0 {
				st.VY = -st.VY * damping
			}
			hit = true
		}

		for _, o := range obstacles {
			if o.Width <= 0 || o.Height <= 0 || !inside(o, st.X, st.Y) {
				continue
			}
			bounceOut(st, o, damping)
			hit = true
		}

		if !hit {
			return
		}
	}
}

// inside is a strict interior test: touching an edge is not a collision.
func inside(r dom.Rect, x, y float64) bool {
	return x > r.X && x < r.Right() && y > r.Y && y < r.Bottom()
}

// bounceOut pushes the kart out of an obstacle along the axis of least
// penetration and reflects that axis's velocity component.
func bounceOut(st *State, o dom.Rect, damping float64) {
	left := st.X - o.X
	right := o.Right() - st.X
	top := st.Y - o.Y
	bottom := o.Bottom() - st.Y

	minPen := left
	axis := 0 // 0 left, 1 right, 2 top, 3 bottom
	if right < minPen {
		minPen, axis = right, 1
	}
	if top < minPen {
		minPen, axis = top, 2
	}
	if bottom < minPen {
		axis = 3
	}

	switch axis {
	case 0:
		st.X = o.X
		if st.VX > 0 {
			st.VX = -st.VX * damping
		}
	case 1:
		st.X = o.Right()
		if st.VX < 0 {
			st.VX = -st.VX * damping
		}
	case 2:
		st.Y = o.Y
		if st.VY > 0 {
			st.VY = -st.VY * damping
		}
	case 3:
		st.Y = o.Bottom()
		if st.VY < 0 {
			st.VY = -st.VY * damping
		}
	}
}
