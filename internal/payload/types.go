// Package payload defines the feedback payload record and the builder
// that assembles one from an element snapshot.
package payload

import (
	"errors"
	"time"

	"github.com/anyclick/anyclick/internal/capture"
)

// Well-known feedback types. The set is open: hosts may submit custom
// tags and adapters must pass them through untouched.
const (
	TypeIssue   = "issue"
	TypeFeature = "feature"
	TypeLike    = "like"
	TypeBug     = "bug"
)

// Validation errors for incoming payloads.
var (
	ErrMissingType    = errors.New("feedback type is required")
	ErrMissingElement = errors.New("feedback element is required")
	ErrMissingPage    = errors.New("feedback page is required")
)

// Feedback is one submitted feedback event. It is immutable once built:
// created per user submission, consumed exactly once by an adapter, and
// never persisted by the core.
type Feedback struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Comment     string          `json:"comment,omitempty"`
	Element     ElementInfo     `json:"element"`
	Page        PageInfo        `json:"page"`
	Screenshots *capture.Result `json:"screenshots,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ElementInfo describes the targeted DOM element.
type ElementInfo struct {
	Selector       string            `json:"selector"`
	Tag            string            `json:"tag"`
	ID             string            `json:"id,omitempty"`
	Classes        []string          `json:"classes,omitempty"`
	InnerText      string            `json:"innerText,omitempty"`
	OuterHTML      string            `json:"outerHTML,omitempty"`
	Ancestors      []AncestorInfo    `json:"ancestors,omitempty"`
	DataAttributes map[string]string `json:"dataAttributes,omitempty"`
}

// AncestorInfo is the bounded record of one ancestor element.
type AncestorInfo struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
}

// PageInfo captures page metadata at submission time.
type PageInfo struct {
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	ViewportWidth  int       `json:"viewportWidth,omitempty"`
	ViewportHeight int       `json:"viewportHeight,omitempty"`
	ScreenWidth    int       `json:"screenWidth,omitempty"`
	ScreenHeight   int       `json:"screenHeight,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
	Referrer       string    `json:"referrer,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate checks the required fields of an externally submitted payload.
func (f *Feedback) Validate() error {
	if f.Type == "" {
		return ErrMissingType
	}
	if f.Element.Selector == "" && f.Element.Tag == "" {
		return ErrMissingElement
	}
	if f.Page.URL == "" {
		return ErrMissingPage
	}
	return nil
}
