// Package dom models element snapshots captured in the browser and the
// traversal heuristics anyclick runs over them. The capture client
// serializes the right-clicked element together with its ancestor chain
// and computed-style visibility; this package restores the tree shape and
// answers structural questions about it.
package dom

import (
	"fmt"
	"strings"
)

// Rect is an axis-aligned bounding rectangle in CSS pixels, mirroring a
// browser DOMRect.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether the point (x, y) lies inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Element is one node of a serialized DOM snapshot.
type Element struct {
	Tag        string            `json:"tag"`
	ID         string            `json:"id,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	InnerText  string            `json:"innerText,omitempty"`
	OuterHTML  string            `json:"outerHTML,omitempty"`

	// Computed style fields the container heuristic depends on.
	Display    string `json:"display,omitempty"`
	Visibility string `json:"visibility,omitempty"`

	Rect     Rect       `json:"rect"`
	Children []*Element `json:"children,omitempty"`

	parent *Element
}

// Parent returns the parent element, or nil at the root.
// Link must have been called on the tree root first.
func (e *Element) Parent() *Element { return e.parent }

// Link restores parent pointers throughout the subtree rooted at e.
// Snapshots arrive over the wire as plain nested JSON, so the links are
// rebuilt after decoding.
func (e *Element) Link() {
	for _, c := range e.Children {
		c.parent = e
		c.Link()
	}
}

// Root walks up to the topmost linked ancestor.
func (e *Element) Root() *Element {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// HasClass reports whether the element carries the given class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class if not already present.
func (e *Element) AddClass(class string) {
	if !e.HasClass(class) {
		e.Classes = append(e.Classes, class)
	}
}

// RemoveClass removes a class if present.
func (e *Element) RemoveClass(class string) {
	out := e.Classes[:0]
	for _, c := range e.Classes {
		if c != class {
			out = append(out, c)
		}
	}
	e.Classes = out
}

// Walk visits e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Selector builds a CSS path for the element: the id when present,
// otherwise a tag path from the root with nth-of-type disambiguation.
func (e *Element) Selector() string {
	if e.ID != "" {
		return "#" + e.ID
	}

	var parts []string
	for cur := e; cur != nil; cur = cur.parent {
		sel := strings.ToLower(cur.Tag)
		if cur.ID != "" {
			parts = append(parts, "#"+cur.ID)
			break
		}
		if p := cur.parent; p != nil {
			same := 0
			index := 0
			for _, sib := range p.Children {
				if strings.EqualFold(sib.Tag, cur.Tag) {
					same++
					if sib == cur {
						index = same
					}
				}
			}
			if same > 1 {
				sel = fmt.Sprintf("%s:nth-of-type(%d)", sel, index)
			}
		}
		parts = append(parts, sel)
	}

	// parts were collected leaf-first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
