package config

import "sync"

// ScopeStack resolves nested configuration scopes. A page region can
// push an overlay frame (its own capture limits, pointer mode, or
// highlight styling) and pop it on exit; lookups resolve
// top-of-stack-wins, section by section.
type ScopeStack struct {
	mu   sync.RWMutex
	base *Config
	over []*Config
}

// NewScopeStack roots a stack at the base configuration. A nil base
// uses the defaults.
func NewScopeStack(base *Config) *ScopeStack {
	if base == nil {
		base = DefaultConfig()
	}
	return &ScopeStack{base: base}
}

// Push adds an overlay frame and returns the function that removes it.
// Frames must be popped in reverse push order; popping twice is a no-op.
func (s *ScopeStack) Push(overlay *Config) func() {
	if overlay == nil {
		return func() {}
	}

	s.mu.Lock()
	s.over = append(s.over, overlay)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i := len(s.over) - 1; i >= 0; i-- {
				if s.over[i] == overlay {
					s.over = append(s.over[:i], s.over[i+1:]...)
					return
				}
			}
		})
	}
}

// Depth returns the number of active overlay frames.
func (s *ScopeStack) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.over)
}

// Current resolves the effective configuration: for each section the
// topmost frame that sets it wins, falling through to the base.
func (s *ScopeStack) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &Config{}
	for i := len(s.over) - 1; i >= 0; i-- {
		mergeMissing(out, s.over[i])
	}
	mergeMissing(out, s.base)
	return out
}

// mergeMissing fills sections out lacks from src.
func mergeMissing(out, src *Config) {
	if src == nil {
		return
	}
	if out.Server == nil {
		out.Server = src.Server
	}
	if out.Capture == nil {
		out.Capture = src.Capture
	}
	if out.Payload == nil {
		out.Payload = src.Payload
	}
	if out.Pointer == nil {
		out.Pointer = src.Pointer
	}
	if out.Toast == nil {
		out.Toast = src.Toast
	}
	if out.Highlight == nil {
		out.Highlight = src.Highlight
	}
	if out.Adapters == nil {
		out.Adapters = src.Adapters
	}
}
