package server

import (
	"github.com/anyclick/anyclick/internal/config"
	"github.com/anyclick/anyclick/internal/dom"
	"github.com/anyclick/anyclick/internal/highlight"
	"github.com/anyclick/anyclick/internal/payload"
)

// markerAttribute tags the right-clicked element inside a serialized
// snapshot tree. The capture client sets it during serialization only,
// never on the live DOM.
const markerAttribute = "data-anyclick-target"

// highlightPatch tells the page how to mirror the server-side highlight
// state: the stylesheet text plus the selectors to mark.
type highlightPatch struct {
	CSS       string `json:"css"`
	Revision  int    `json:"revision"`
	Target    string `json:"target"`
	Container string `json:"container,omitempty"`
}

// handleSnapshot processes one right-click snapshot: locate the target,
// detect its container, apply the highlight, and describe the result for
// the page.
func (s *Server) handleSnapshot(root *dom.Element) any {
	target := findMarkedTarget(root)

	container := dom.FindContainer(target, s.containerOptions())
	s.highlighter.Apply(target, container)

	patch := highlightPatch{
		CSS:      s.highlighter.Handle().CSS(),
		Revision: s.highlighter.Handle().Revision(),
		Target:   target.Selector(),
	}
	if container != nil {
		patch.Container = container.Selector()
	}
	return patch
}

// findMarkedTarget locates the element the marker attribute tags. A
// snapshot without a marker targets its root.
func findMarkedTarget(root *dom.Element) *dom.Element {
	found := root
	root.Walk(func(e *dom.Element) {
		if e.Attributes[markerAttribute] != "" {
			found = e
		}
	})
	return found
}

// containerOptions resolves container detection settings from the
// current scope.
func (s *Server) containerOptions() dom.ContainerOptions {
	var opts dom.ContainerOptions
	if hl := s.scopes.Current().Highlight; hl != nil {
		opts.Selectors = hl.ContainerSelectors
	}
	return opts
}

// captureBudget resolves the screenshot size cap from the current scope.
func (s *Server) captureBudget() int {
	if cc := s.scopes.Current().Capture; cc != nil {
		return cc.MaxTotalBytes
	}
	return 0
}

// payloadOptions maps the payload config section to builder options.
func payloadOptions(pc *config.PayloadConfig) payload.Options {
	opts := payload.DefaultOptions()
	if pc != nil {
		opts = payload.Options{
			MaxInnerTextLength: pc.MaxInnerTextLength,
			MaxOuterHTMLLength: pc.MaxOuterHTMLLength,
			MaxAncestors:       pc.MaxAncestors,
			MaxClasses:         pc.MaxClasses,
			Cooldown:           pc.Cooldown(),
		}
	}
	// The snapshot marker is transport detail, never payload content.
	opts.StripAttributes = append(opts.StripAttributes, markerAttribute)
	return opts
}

// highlightOptions maps the highlight config section to style options.
func highlightOptions(hc *config.HighlightConfig) highlight.Options {
	if hc == nil {
		return highlight.Options{}
	}
	return highlight.Options{
		Color:          hc.Color,
		ContainerColor: hc.ContainerColor,
		Opacity:        hc.Opacity,
		BorderWidth:    hc.BorderWidth,
	}
}
