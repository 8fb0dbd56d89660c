package manager

import (
	"time"

	"ledcore/internal/frame"
)

// priorityQueue is a bounded, capacity-2 "most recent frames" cache for
// one priority level on one strip. Submitting past capacity evicts the
// oldest entry. Collecting (during a render tick) does not remove live
// entries: a frame stays selectable across many ticks until its TTL
// expires, so a one-shot submission with a long TTL keeps rendering
// without resubmission.
type priorityQueue struct {
	entries []*queueEntry
}

type queueEntry struct {
	f *frame.Frame
	// rendered is set the first time the entry is returned as valid from
	// collect, so expiry drops only count frames that never made it into
	// a merge.
	rendered bool
}

const queueCapacity = 2

// push appends f, evicting the oldest entry if already at capacity.
func (q *priorityQueue) push(f *frame.Frame) (didEvict bool) {
	if len(q.entries) >= queueCapacity {
		q.entries = q.entries[1:]
		didEvict = true
	}
	q.entries = append(q.entries, &queueEntry{f: f})
	return didEvict
}

// len reports the number of live entries, for diagnostics.
func (q *priorityQueue) len() int { return len(q.entries) }

// collect returns the non-expired frames in FIFO order and prunes the
// rest. A TTL-of-zero frame is valid exactly in the first tick that
// collects it, then gone: the render loop runs milliseconds after
// submission, so a literal created_at+ttl comparison would never let a
// one-shot frame through at all. dropped counts pruned frames that never
// contributed to any merge.
func (q *priorityQueue) collect(now time.Time) (valid []*frame.Frame, dropped int) {
	keep := q.entries[:0]
	for _, e := range q.entries {
		oneShot := e.f.TTL == 0 && !e.rendered
		if e.f.IsExpired(now) && !oneShot {
			if !e.rendered {
				dropped++
			}
			continue
		}
		e.rendered = true
		valid = append(valid, e.f)
		if e.f.TTL == 0 {
			continue // consumed by this tick
		}
		keep = append(keep, e)
	}
	q.entries = keep
	return valid, dropped
}
