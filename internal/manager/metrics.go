package manager

import (
	"sync"
	"sync/atomic"

	"ledcore/internal/frame"
)

// Metrics holds the counters the render core exposes over the metrics
// endpoint. All fields are safe for concurrent use.
type Metrics struct {
	FramesRendered     int64
	CommitsSkipped     int64
	FramesDroppedTTL   int64
	FramesDroppedQueue int64
	RenderLoopTicks    int64
	DrainLockTimeouts  int64
	HWFailures         int64
	RenderErrors       int64

	mu                sync.Mutex
	submittedBySource map[frame.Source]int64
	submittedByPrio   map[frame.Priority]int64
}

// NewMetrics builds an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		submittedBySource: make(map[frame.Source]int64),
		submittedByPrio:   make(map[frame.Priority]int64),
	}
}

func (m *Metrics) recordSubmit(source frame.Source, priority frame.Priority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submittedBySource[source]++
	m.submittedByPrio[priority]++
}

// Snapshot is an immutable copy of Metrics for diagnostics/API responses.
type Snapshot struct {
	FramesRendered     int64                    `json:"frames_rendered"`
	CommitsSkipped     int64                    `json:"commits_skipped"`
	FramesDroppedTTL   int64                    `json:"frames_dropped_ttl"`
	FramesDroppedQueue int64                    `json:"frames_dropped_queue"`
	RenderLoopTicks    int64                    `json:"render_loop_ticks"`
	DrainLockTimeouts  int64                    `json:"drain_lock_timeouts"`
	HWFailures         int64                    `json:"hw_failures"`
	RenderErrors       int64                    `json:"render_errors"`
	SubmittedBySource  map[frame.Source]int64   `json:"submitted_by_source"`
	SubmittedByPrio    map[frame.Priority]int64 `json:"submitted_by_priority"`
}

// Snapshot returns a point-in-time copy of every counter.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	bySource := make(map[frame.Source]int64, len(m.submittedBySource))
	for k, v := range m.submittedBySource {
		bySource[k] = v
	}
	byPrio := make(map[frame.Priority]int64, len(m.submittedByPrio))
	for k, v := range m.submittedByPrio {
		byPrio[k] = v
	}
	return Snapshot{
		FramesRendered:     atomic.LoadInt64(&m.FramesRendered),
		CommitsSkipped:     atomic.LoadInt64(&m.CommitsSkipped),
		FramesDroppedTTL:   atomic.LoadInt64(&m.FramesDroppedTTL),
		FramesDroppedQueue: atomic.LoadInt64(&m.FramesDroppedQueue),
		RenderLoopTicks:    atomic.LoadInt64(&m.RenderLoopTicks),
		DrainLockTimeouts:  atomic.LoadInt64(&m.DrainLockTimeouts),
		HWFailures:         atomic.LoadInt64(&m.HWFailures),
		RenderErrors:       atomic.LoadInt64(&m.RenderErrors),
		SubmittedBySource:  bySource,
		SubmittedByPrio:    byPrio,
	}
}
