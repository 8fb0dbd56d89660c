package manager

import (
	"testing"
	"time"

	"ledcore/internal/frame"
)

func qFrame(ttl time.Duration, createdAt time.Time) *frame.Frame {
	return &frame.Frame{
		Priority:  frame.Manual,
		Source:    frame.SourceManual,
		CreatedAt: createdAt,
		TTL:       ttl,
		Updates:   nil, // merge behavior is not under test here
	}
}

func TestPushEvictsOldest(t *testing.T) {
	q := &priorityQueue{}
	now := time.Now()
	a, b, c := qFrame(time.Second, now), qFrame(time.Second, now), qFrame(time.Second, now)

	if q.push(a) {
		t.Fatal("first push must not evict")
	}
	if q.push(b) {
		t.Fatal("second push must not evict")
	}
	if !q.push(c) {
		t.Fatal("third push must evict the oldest")
	}
	valid, _ := q.collect(now)
	if len(valid) != 2 || valid[0] != b || valid[1] != c {
		t.Fatalf("expected [b c] after eviction, got %d frames", len(valid))
	}
}

func TestCollectKeepsLiveFrames(t *testing.T) {
	q := &priorityQueue{}
	now := time.Now()
	f := qFrame(time.Second, now)
	q.push(f)

	for i := 0; i < 3; i++ {
		valid, dropped := q.collect(now)
		if len(valid) != 1 || dropped != 0 {
			t.Fatalf("collect %d: got %d valid %d dropped", i, len(valid), dropped)
		}
	}
}

func TestCollectPrunesExpired(t *testing.T) {
	q := &priorityQueue{}
	now := time.Now()
	q.push(qFrame(10*time.Millisecond, now.Add(-time.Second)))

	valid, dropped := q.collect(now)
	if len(valid) != 0 || dropped != 1 {
		t.Fatalf("got %d valid %d dropped", len(valid), dropped)
	}
	// Pruned: the drop is counted once, not once per tick.
	if _, dropped = q.collect(now); dropped != 0 {
		t.Fatal("expired frame counted twice")
	}
}

func TestCollectOneShotTTLZero(t *testing.T) {
	q := &priorityQueue{}
	created := time.Now()
	q.push(qFrame(0, created))

	// First collect runs a beat later, as the real render loop does.
	later := created.Add(16 * time.Millisecond)
	valid, dropped := q.collect(later)
	if len(valid) != 1 || dropped != 0 {
		t.Fatalf("one-shot frame must be valid in its first tick: %d valid %d dropped", len(valid), dropped)
	}
	valid, dropped = q.collect(later.Add(16 * time.Millisecond))
	if len(valid) != 0 || dropped != 0 {
		t.Fatalf("one-shot frame must be gone after its tick: %d valid %d dropped", len(valid), dropped)
	}
}

func TestCollectDropsRenderedExpiryQuietly(t *testing.T) {
	q := &priorityQueue{}
	now := time.Now()
	q.push(qFrame(50*time.Millisecond, now))

	if valid, _ := q.collect(now.Add(10 * time.Millisecond)); len(valid) != 1 {
		t.Fatal("frame should be live at first collect")
	}
	// A frame that already contributed is pruned silently on expiry.
	valid, dropped := q.collect(now.Add(100 * time.Millisecond))
	if len(valid) != 0 || dropped != 0 {
		t.Fatalf("got %d valid %d dropped", len(valid), dropped)
	}
}
