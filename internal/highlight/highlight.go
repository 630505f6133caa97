// Package highlight manages the visual selection state for a capture:
// one injected stylesheet plus marker classes on the targeted element
// and its container.
package highlight

import (
	"fmt"
	"strings"
	"sync"

	"github.com/anyclick/anyclick/internal/dom"
)

// Marker classes toggled on snapshot elements. The capture client applies
// the same classes to the live DOM.
const (
	TargetClass    = "anyclick-highlight"
	ContainerClass = "anyclick-highlight-container"
)

// Options controls the generated highlight stylesheet. Zero values fall
// back to defaults; invalid values are silently replaced.
type Options struct {
	// Color is the outline color for the targeted element (hex, e.g.
	// "#3b82f6").
	Color string

	// ContainerColor is the outline color for the container element.
	ContainerColor string

	// Opacity is the fill opacity in [0, 1].
	Opacity float64

	// BorderWidth is the outline width in pixels.
	BorderWidth int
}

func (o Options) withDefaults() Options {
	if o.Color == "" {
		o.Color = "#3b82f6"
	}
	if o.ContainerColor == "" {
		o.ContainerColor = "#8b5cf6"
	}
	if o.Opacity <= 0 || o.Opacity > 1 {
		o.Opacity = 0.15
	}
	if o.BorderWidth <= 0 {
		o.BorderWidth = 2
	}
	return o
}

// CSS renders the highlight stylesheet for the given options.
func CSS(opts Options) string {
	o := opts.withDefaults()
	return fmt.Sprintf(`.%s {
  outline: %dpx solid %s !important;
  outline-offset: -%dpx;
  background-color: %s !important;
}
.%s {
  outline: %dpx dashed %s !important;
  outline-offset: -%dpx;
}`,
		TargetClass, o.BorderWidth, o.Color, o.BorderWidth, rgba(o.Color, o.Opacity),
		ContainerClass, o.BorderWidth, o.ContainerColor, o.BorderWidth)
}

// rgba converts a #rrggbb hex color plus opacity to an rgba() literal.
// Malformed input falls back to a translucent blue.
func rgba(hex string, opacity float64) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return fmt.Sprintf("rgba(59, 130, 246, %.2f)", opacity)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(h, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fmt.Sprintf("rgba(59, 130, 246, %.2f)", opacity)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", r, g, b, opacity)
}

// StyleHandle owns the single injected highlight <style> resource.
// Acquire is create-or-replace, Release is remove-if-present; both are
// idempotent. The handle holds the authoritative CSS text and a patch
// revision the capture client synchronizes against.
type StyleHandle struct {
	mu       sync.Mutex
	active   bool
	css      string
	revision int
}

// Acquire installs (or replaces) the stylesheet and returns its CSS.
func (h *StyleHandle) Acquire(opts Options) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.css = CSS(opts)
	h.active = true
	h.revision++
	return h.css
}

// Release removes the stylesheet. Releasing an inactive handle is a no-op.
func (h *StyleHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active {
		return
	}
	h.active = false
	h.css = ""
	h.revision++
}

// Active reports whether the stylesheet is currently installed.
func (h *StyleHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// CSS returns the current stylesheet text, empty when released.
func (h *StyleHandle) CSS() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.css
}

// Revision returns a counter that increments on every acquire/release,
// letting clients detect stale stylesheets.
func (h *StyleHandle) Revision() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revision
}

// Highlighter applies and clears highlight marks on a snapshot tree.
// Applying twice clears the previous marks first.
type Highlighter struct {
	handle StyleHandle
	opts   Options

	mu   sync.Mutex
	root *dom.Element
}

// NewHighlighter creates a highlighter with the given style options.
func NewHighlighter(opts Options) *Highlighter {
	return &Highlighter{opts: opts}
}

// Handle exposes the style handle for the transport layer.
func (hl *Highlighter) Handle() *StyleHandle { return &hl.handle }

// Apply highlights target and, when non-nil, its container. Any marks
// from a previous Apply are cleared first.
func (hl *Highlighter) Apply(target, container *dom.Element) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if hl.root != nil {
		clearTree(hl.root)
	}

	hl.handle.Acquire(hl.opts)

	target.AddClass(TargetClass)
	if container != nil {
		container.AddClass(ContainerClass)
	}
	hl.root = target.Root()
}

// Clear removes both marker classes from every element bearing them and
// releases the stylesheet. Safe to call repeatedly.
func (hl *Highlighter) Clear() {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if hl.root != nil {
		clearTree(hl.root)
		hl.root = nil
	}
	hl.handle.Release()
}

func clearTree(root *dom.Element) {
	root.Walk(func(e *dom.Element) {
		e.RemoveClass(TargetClass)
		e.RemoveClass(ContainerClass)
	})
}
