// Package history stores per-visitor chat transcripts for the assistant
// panel. Entries are keyed by caller IP, expire 24 hours after the last
// save, and are capped at the 50 most recent messages.
package history

import (
	"sort"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/anyclick/anyclick/internal/debug"
)

const (
	// TTL is how long a transcript survives after its last save.
	TTL = 24 * time.Hour

	// MaxMessages is the retained message cap per visitor.
	MaxMessages = 50

	cleanupInterval = 10 * time.Minute
)

// Message is one chat message.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// entry is the cached per-IP record.
type entry struct {
	Messages  []Message
	CreatedAt time.Time
	SavedAt   time.Time
}

// Store is the TTL-backed history store.
type Store struct {
	c *cache.Cache

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a history store with the standard TTL.
func NewStore() *Store {
	return &Store{
		c:   cache.New(TTL, cleanupInterval),
		now: time.Now,
	}
}

// Save merges incoming messages into the visitor's transcript: messages
// are deduplicated by ID (incoming wins), anything older than the TTL is
// dropped, and only the MaxMessages most recent survive. Saving resets
// the expiry clock. Returns the retained count and the new expiry.
func (s *Store) Save(ip string, msgs []Message) (int, time.Time) {
	now := s.now()
	cutoff := now.Add(-TTL)

	var prev entry
	if v, ok := s.c.Get(ip); ok {
		prev = v.(entry)
	} else {
		prev.CreatedAt = now
	}

	merged := make(map[string]Message, len(prev.Messages)+len(msgs))
	for _, m := range prev.Messages {
		merged[m.ID] = m
	}
	for _, m := range msgs {
		merged[m.ID] = m
	}

	out := make([]Message, 0, len(merged))
	for _, m := range merged {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if len(out) > MaxMessages {
		out = out[len(out)-MaxMessages:]
	}

	e := entry{
		Messages:  out,
		CreatedAt: prev.CreatedAt,
		SavedAt:   now,
	}
	s.c.Set(ip, e, TTL)

	debug.Log("history", "saved %d messages for %s", len(out), ip)
	return len(out), now.Add(TTL)
}

// Load returns the visitor's transcript, creation time, and expiry.
// found is false for an unknown or expired visitor.
func (s *Store) Load(ip string) (msgs []Message, createdAt, expiresAt time.Time, found bool) {
	v, ok := s.c.Get(ip)
	if !ok {
		return nil, time.Time{}, time.Time{}, false
	}
	e := v.(entry)

	// Drop anything that aged out since the last save.
	cutoff := s.now().Add(-TTL)
	for _, m := range e.Messages {
		if m.Timestamp.Before(cutoff) {
			continue
		}
		msgs = append(msgs, m)
	}

	return msgs, e.CreatedAt, e.SavedAt.Add(TTL), true
}

// Clear deletes the visitor's transcript.
func (s *Store) Clear(ip string) {
	s.c.Delete(ip)
}
