package lawsuit

import (
	"testing"
	"time"
)

func TestCacheGate_Evaluate(t *testing.T) {
	gate := CacheGate{TTL: 6 * time.Hour}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := gate.Evaluate(now.Add(-1*time.Hour), now)
	if !fresh.Fresh {
		t.Fatal("expected 1h-old record to be fresh against a 6h TTL")
	}
	if fresh.Note != "updated 60 minutes ago" {
		t.Fatalf("unexpected note %q", fresh.Note)
	}

	stale := gate.Evaluate(now.Add(-7*time.Hour), now)
	if stale.Fresh {
		t.Fatal("expected 7h-old record to be stale")
	}
}

func TestCacheGate_BoundaryIsStale(t *testing.T) {
	gate := CacheGate{TTL: 6 * time.Hour}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	verdict := gate.Evaluate(now.Add(-6*time.Hour), now)
	if verdict.Fresh {
		t.Fatal("age exactly equal to the TTL must be stale")
	}
}

func TestCacheGate_FutureTimestampClamped(t *testing.T) {
	gate := CacheGate{TTL: 6 * time.Hour}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	verdict := gate.Evaluate(now.Add(30*time.Minute), now)
	if !verdict.Fresh {
		t.Fatal("clock skew into the future must still read as fresh")
	}
	if verdict.Age != 0 {
		t.Fatalf("expected clamped age 0, got %v", verdict.Age)
	}
}

func TestCacheGate_HourNoteOnLongTTL(t *testing.T) {
	gate := CacheGate{TTL: 24 * time.Hour}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	verdict := gate.Evaluate(now.Add(-5*time.Hour), now)
	if !verdict.Fresh {
		t.Fatal("expected fresh verdict")
	}
	if verdict.Note != "updated 5 hours ago" {
		t.Fatalf("unexpected note %q", verdict.Note)
	}
}
