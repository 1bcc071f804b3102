package dialog

import (
	"testing"
	"time"

	"github.com/dialogcore/server/internal/agent/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func nluWith(entities ...model.Entity) *model.NLUResult {
	return &model.NLUResult{
		Intent:   model.IntentPrediction{Name: "question", Confidence: 0.8},
		Entities: entities,
	}
}

func TestEnsureCreatesFreshContext(t *testing.T) {
	m := NewContextManager(3, 10*time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(now)

	sc := m.Ensure(nil, "s1", "u1")

	if sc.SessionID != "s1" || sc.UserID != "u1" {
		t.Fatalf("unexpected identity: %+v", sc)
	}
	if len(sc.History) != 0 || len(sc.Slots) != 0 {
		t.Fatalf("fresh context not empty: %+v", sc)
	}
	if !sc.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("expiresAt = %v, want now+ttl", sc.ExpiresAt)
	}
}

func TestEnsureRecreatesExpiredContext(t *testing.T) {
	m := NewContextManager(3, 10*time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(now)

	stale := model.NewSessionContext("s1", "u1", now.Add(-time.Minute))
	stale.Slots["product"] = "laptop"
	stale.History = append(stale.History, model.Turn{Text: "old"})

	sc := m.Ensure(stale, "s1", "u1")

	if len(sc.History) != 0 || len(sc.Slots) != 0 {
		t.Fatalf("expired context was reused: %+v", sc)
	}
}

func TestEnsureSlidesExpiry(t *testing.T) {
	m := NewContextManager(3, 10*time.Minute)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(start)

	sc := m.Ensure(nil, "s1", "")

	later := start.Add(5 * time.Minute)
	m.now = fixedClock(later)
	sc = m.Ensure(sc, "s1", "")

	if !sc.ExpiresAt.Equal(later.Add(10 * time.Minute)) {
		t.Fatalf("expiry not refreshed on access: %v", sc.ExpiresAt)
	}
	if len(sc.History) != 0 {
		t.Fatalf("live context was replaced")
	}
}

func TestMergeEvictsOldestBeyondMax(t *testing.T) {
	m := NewContextManager(3, 10*time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(now)

	sc := m.Ensure(nil, "s1", "")
	for _, text := range []string{"one", "two", "three", "four"} {
		sc = m.Merge(sc, nluWith(), text)
	}

	if len(sc.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(sc.History))
	}
	want := []string{"two", "three", "four"}
	for i, w := range want {
		if sc.History[i].Text != w {
			t.Fatalf("history[%d] = %q, want %q (oldest first eviction)", i, sc.History[i].Text, w)
		}
	}
}

func TestMergeSlotsLastWriteWins(t *testing.T) {
	m := NewContextManager(5, 10*time.Minute)
	m.now = fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	sc := m.Ensure(nil, "s1", "")
	sc = m.Merge(sc, nluWith(model.Entity{Type: "product", Value: "laptop"}), "a laptop")
	sc = m.Merge(sc, nluWith(model.Entity{Type: "product", Value: "phone"}), "no, a phone")

	if got := sc.Slots["product"]; got != "phone" {
		t.Fatalf("slot product = %q, want last write %q", got, "phone")
	}
	if len(sc.Slots) != 1 {
		t.Fatalf("slots accumulated values: %v", sc.Slots)
	}
}

func TestMergeRefreshesExpiry(t *testing.T) {
	m := NewContextManager(5, 10*time.Minute)
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(start)
	sc := m.Ensure(nil, "s1", "")

	later := start.Add(7 * time.Minute)
	m.now = fixedClock(later)
	sc = m.Merge(sc, nluWith(), "hello")

	if !sc.ExpiresAt.Equal(later.Add(10 * time.Minute)) {
		t.Fatalf("merge did not refresh expiry: %v", sc.ExpiresAt)
	}
}
