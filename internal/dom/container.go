package dom

import "strings"

// DefaultMinChildren is the structural fallback threshold: an ancestor
// with at least this many visible children is remembered as a candidate
// container while the walk continues looking for something stronger.
const DefaultMinChildren = 2

// strongChildCount is the threshold at which an ancestor is accepted
// immediately on structural grounds alone.
const strongChildCount = 3

// ContainerOptions configures FindContainer.
type ContainerOptions struct {
	// Selectors are CSS selectors that identify known containers
	// (e.g. ".card", "[data-section]"). A selector match on an
	// ancestor always wins over any structural heuristic.
	Selectors []string

	// MinChildren is the minimum visible-child count for a fallback
	// candidate. Values below 1 fall back to DefaultMinChildren.
	MinChildren int
}

// IsVisible reports whether an element is rendered per its captured
// computed style. An empty style field counts as visible; snapshots only
// record display/visibility when the client saw them set.
func IsVisible(e *Element) bool {
	if e.Display == "none" {
		return false
	}
	if e.Visibility == "hidden" {
		return false
	}
	return true
}

// VisibleChildCount counts children that are visible and are not
// script/style/template nodes.
func VisibleChildCount(e *Element) int {
	n := 0
	for _, c := range e.Children {
		switch strings.ToLower(c.Tag) {
		case "script", "style", "template":
			continue
		}
		if IsVisible(c) {
			n++
		}
	}
	return n
}

// FindContainer walks the ancestors of target looking for its logical
// container. The policy, in priority order:
//
//  1. An ancestor matching a configured selector is returned immediately.
//  2. An ancestor with >= 3 visible non-script/style children is
//     returned immediately.
//  3. An ancestor with >= MinChildren such children is recorded as a
//     fallback candidate and the walk continues.
//
// If the walk reaches the body (or the root of the snapshot) without a
// strong match, the nearest fallback candidate is returned, or nil when
// none was recorded. This is a heuristic, not a containment guarantee.
func FindContainer(target *Element, opts ContainerOptions) *Element {
	minChildren := opts.MinChildren
	if minChildren < 1 {
		minChildren = DefaultMinChildren
	}

	var fallback *Element
	for anc := target.Parent(); anc != nil; anc = anc.Parent() {
		if strings.EqualFold(anc.Tag, "body") || strings.EqualFold(anc.Tag, "html") {
			break
		}

		if len(opts.Selectors) > 0 && MatchesAny(anc, opts.Selectors) {
			return anc
		}

		n := VisibleChildCount(anc)
		if n >= strongChildCount {
			return anc
		}
		if n >= minChildren && fallback == nil {
			fallback = anc
		}
	}

	return fallback
}
