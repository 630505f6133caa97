package history

import (
	"fmt"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	s := NewStore()
	now := time.Now()

	count, expires := s.Save("1.2.3.4", []Message{
		{ID: "m1", Role: "user", Content: "hi", Timestamp: now},
	})
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if !expires.After(now.Add(23 * time.Hour)) {
		t.Errorf("expiry too soon: %v", expires)
	}

	msgs, createdAt, expiresAt, found := s.Load("1.2.3.4")
	if !found {
		t.Fatal("expected transcript to be found")
	}
	if len(msgs) != 1 || msgs[0].ID != "m1" || msgs[0].Content != "hi" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
	if createdAt.IsZero() || expiresAt.IsZero() {
		t.Error("missing createdAt/expiresAt")
	}
}

func TestLoadUnknownIP(t *testing.T) {
	s := NewStore()
	if _, _, _, found := s.Load("9.9.9.9"); found {
		t.Error("unknown IP should not be found")
	}
}

func TestSaveDeduplicatesByID(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Save("ip", []Message{{ID: "m1", Role: "user", Content: "first", Timestamp: now}})
	count, _ := s.Save("ip", []Message{{ID: "m1", Role: "user", Content: "edited", Timestamp: now}})

	if count != 1 {
		t.Errorf("count = %d, want 1 (no duplicate)", count)
	}

	msgs, _, _, _ := s.Load("ip")
	if len(msgs) != 1 || msgs[0].Content != "edited" {
		t.Errorf("incoming message should win the merge: %+v", msgs)
	}
}

func TestSaveDropsExpiredMessages(t *testing.T) {
	s := NewStore()
	now := time.Now()

	count, _ := s.Save("ip", []Message{
		{ID: "old", Role: "user", Content: "stale", Timestamp: now.Add(-25 * time.Hour)},
		{ID: "new", Role: "user", Content: "fresh", Timestamp: now},
	})

	if count != 1 {
		t.Errorf("count = %d, want 1 (expired dropped)", count)
	}
	msgs, _, _, _ := s.Load("ip")
	if len(msgs) != 1 || msgs[0].ID != "new" {
		t.Errorf("expected only the fresh message: %+v", msgs)
	}
}

func TestSaveCapsAtMaxMessages(t *testing.T) {
	s := NewStore()
	now := time.Now()

	var msgs []Message
	for i := 0; i < MaxMessages+10; i++ {
		msgs = append(msgs, Message{
			ID:        fmt.Sprintf("m%d", i),
			Role:      "user",
			Content:   fmt.Sprintf("msg %d", i),
			Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}

	count, _ := s.Save("ip", msgs)
	if count != MaxMessages {
		t.Errorf("count = %d, want %d", count, MaxMessages)
	}

	got, _, _, _ := s.Load("ip")
	if len(got) != MaxMessages {
		t.Fatalf("len = %d, want %d", len(got), MaxMessages)
	}
	// Exactly the newest survive, in timestamp order.
	if got[0].ID != "m10" || got[len(got)-1].ID != fmt.Sprintf("m%d", MaxMessages+9) {
		t.Errorf("wrong retention window: first=%s last=%s", got[0].ID, got[len(got)-1].ID)
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Save("ip", []Message{{ID: "m1", Timestamp: time.Now()}})
	s.Clear("ip")

	if _, _, _, found := s.Load("ip"); found {
		t.Error("transcript should be gone after Clear")
	}

	// Clearing twice is harmless.
	s.Clear("ip")
}

func TestIsolationBetweenIPs(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.Save("a", []Message{{ID: "m1", Content: "for a", Timestamp: now}})
	s.Save("b", []Message{{ID: "m2", Content: "for b", Timestamp: now}})

	msgsA, _, _, _ := s.Load("a")
	if len(msgsA) != 1 || msgsA[0].ID != "m1" {
		t.Errorf("transcripts leaked across IPs: %+v", msgsA)
	}
}
