package payload

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anyclick/anyclick/internal/debug"
	"github.com/anyclick/anyclick/internal/dom"
)

// TruncationMarker is appended to any truncated text field.
const TruncationMarker = "…"

// Options bounds the assembled payload. Zero values fall back to
// defaults; invalid values are silently replaced.
type Options struct {
	// MaxInnerTextLength bounds element.innerText, in runes.
	MaxInnerTextLength int

	// MaxOuterHTMLLength bounds element.outerHTML, in runes.
	MaxOuterHTMLLength int

	// MaxAncestors bounds the recorded ancestor chain.
	MaxAncestors int

	// MaxClasses bounds the class list recorded per element.
	MaxClasses int

	// StripAttributes lists attribute names excluded from the
	// data-attribute bag (tokens, session ids).
	StripAttributes []string

	// Cooldown suppresses a second build for the same target within
	// the window. Zero disables the cooldown.
	Cooldown time.Duration
}

// DefaultOptions returns the builder defaults.
func DefaultOptions() Options {
	return Options{
		MaxInnerTextLength: 500,
		MaxOuterHTMLLength: 2000,
		MaxAncestors:       5,
		MaxClasses:         10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxInnerTextLength <= 0 {
		o.MaxInnerTextLength = d.MaxInnerTextLength
	}
	if o.MaxOuterHTMLLength <= 0 {
		o.MaxOuterHTMLLength = d.MaxOuterHTMLLength
	}
	if o.MaxAncestors <= 0 {
		o.MaxAncestors = d.MaxAncestors
	}
	if o.MaxClasses <= 0 {
		o.MaxClasses = d.MaxClasses
	}
	if o.Cooldown < 0 {
		o.Cooldown = 0
	}
	return o
}

// Builder assembles feedback payloads from element snapshots, enforcing
// field budgets and the per-target cooldown.
type Builder struct {
	opts Options

	mu        sync.Mutex
	lastBuild map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewBuilder creates a builder with the given options.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		opts:      opts.withDefaults(),
		lastBuild: make(map[string]time.Time),
		now:       time.Now,
	}
}

// Build assembles a payload for the target element. The second return is
// false when the build was suppressed by the cooldown window — a no-op,
// not an error.
func (b *Builder) Build(target *dom.Element, ftype, comment string, page PageInfo, meta map[string]any) (*Feedback, bool) {
	selector := target.Selector()

	if b.opts.Cooldown > 0 {
		b.mu.Lock()
		if last, ok := b.lastBuild[selector]; ok && b.now().Sub(last) < b.opts.Cooldown {
			b.mu.Unlock()
			debug.Log("payload", "build suppressed by cooldown for %s", selector)
			return nil, false
		}
		b.lastBuild[selector] = b.now()
		b.mu.Unlock()
	}

	fb := &Feedback{
		ID:        uuid.NewString(),
		Type:      ftype,
		Comment:   comment,
		Element:   b.elementInfo(target, selector),
		Page:      page,
		Metadata:  meta,
		CreatedAt: b.now(),
	}
	return fb, true
}

func (b *Builder) elementInfo(target *dom.Element, selector string) ElementInfo {
	info := ElementInfo{
		Selector:       selector,
		Tag:            strings.ToLower(target.Tag),
		ID:             target.ID,
		Classes:        boundClasses(target.Classes, b.opts.MaxClasses),
		InnerText:      Truncate(target.InnerText, b.opts.MaxInnerTextLength),
		OuterHTML:      Truncate(target.OuterHTML, b.opts.MaxOuterHTMLLength),
		DataAttributes: b.dataAttributes(target),
	}

	for anc := target.Parent(); anc != nil && len(info.Ancestors) < b.opts.MaxAncestors; anc = anc.Parent() {
		info.Ancestors = append(info.Ancestors, AncestorInfo{
			Tag:     strings.ToLower(anc.Tag),
			ID:      anc.ID,
			Classes: boundClasses(anc.Classes, b.opts.MaxClasses),
		})
	}

	return info
}

// dataAttributes collects data-* attributes minus the stripped set.
func (b *Builder) dataAttributes(target *dom.Element) map[string]string {
	var out map[string]string
	for name, value := range target.Attributes {
		if !strings.HasPrefix(name, "data-") {
			continue
		}
		if b.stripped(name) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = value
	}
	return out
}

func (b *Builder) stripped(name string) bool {
	for _, s := range b.opts.StripAttributes {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

func boundClasses(classes []string, max int) []string {
	if len(classes) <= max {
		return classes
	}
	return classes[:max]
}

// Truncate bounds s to max runes, appending the truncation marker when
// anything was cut. The cut is rune-aligned, never mid-multibyte, and the
// result (marker included) never exceeds max runes. Truncating an
// already-short string is a no-op, so the operation is idempotent.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return TruncationMarker
	}
	return string(runes[:max-1]) + TruncationMarker
}
