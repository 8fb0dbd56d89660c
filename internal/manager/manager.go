// Package manager implements the Frame Manager: the single render
// authority for one or more Zone Strips. It holds bounded per-priority
// frame queues per strip, runs the render loop at a fixed cadence,
// selects and merges frames, and is the only component permitted to call
// ZoneStrip.BuildAndCommit.
package manager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"ledcore/internal/color"
	"ledcore/internal/eventbus"
	"ledcore/internal/frame"
	"ledcore/internal/renderstate"
	"ledcore/internal/strip"
	"ledcore/internal/zone"
)

// drainLockTimeout bounds how long the render loop will wait to acquire a
// strip's drain lock before skipping the tick. A flat 1s ceiling rather
// than one tick's worth, so a slow FPS config doesn't also slow down
// contention detection.
const drainLockTimeout = 1 * time.Second

// stopTimeout bounds how long Stop waits for the render loop goroutine to
// exit before giving up.
const stopTimeout = 2 * time.Second

// overlayPriorities lists priorities strictly above Animation, processed
// so that the highest priority present wins a same-zone conflict between
// two overlays: ascending order, so DEBUG is applied last and its
// unconditional overwrite dominates TRANSITION wherever both target the
// same zone in the same tick. See DESIGN.md for the reasoning behind
// this ordering choice.
var overlayPriorities = []frame.Priority{frame.Transition, frame.Debug}

// fillerPriorities lists priorities strictly below Animation, in the
// ascending order fillers are applied: IDLE first, PULSE last, so a
// higher filler priority wins a gap both want to fill.
var fillerPriorities = []frame.Priority{frame.Idle, frame.Manual, frame.Pulse}

// stripState is the per-strip bundle of queues, drain lock, and render
// state the Frame Manager manages. The drainLock is a size-1 buffered
// channel used as a cancellation-safe mutex: acquiring is a channel
// receive (or send, depending on direction) that can be raced against a
// context's Done channel, so a cancelled acquire never leaves the lock
// half-held.
type stripState struct {
	id          string
	zoneStrip   *strip.ZoneStrip
	renderState *renderstate.Store
	drainLock   chan struct{}

	// queues and lastSelected are only ever touched while drainLock is
	// held, by either a submitter (append) or the render loop (read).
	queues       map[frame.Priority]*priorityQueue
	lastSelected map[*frame.Frame]struct{}
}

func newStripState(id string, zs *strip.ZoneStrip) *stripState {
	lock := make(chan struct{}, 1)
	lock <- struct{}{}
	queues := make(map[frame.Priority]*priorityQueue, len(frame.Levels))
	for _, p := range frame.Levels {
		queues[p] = &priorityQueue{}
	}
	return &stripState{
		id:          id,
		zoneStrip:   zs,
		renderState: renderstate.NewStore(zs.ZoneMap()),
		drainLock:   lock,
		queues:      queues,
	}
}

// acquire takes the drain lock, honoring ctx cancellation and an overall
// timeout. It returns an error (never leaving the lock partially held) if
// neither a successful acquire nor a context-cancellation path is taken
// within timeout.
func acquire(ctx context.Context, lock chan struct{}, timeout time.Duration) error {
	// An already-cancelled context never acquires, even if the lock is
	// free; select would otherwise pick between the two at random.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-lock:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func release(lock chan struct{}) {
	lock <- struct{}{}
}

// Manager is the Frame Manager.
type Manager struct {
	fps     int
	logger  *log.Logger
	bus     *eventbus.Bus
	metrics *Metrics

	flushBlackOnStop bool

	mu     sync.Mutex
	strips map[string]*stripState

	running  atomic.Bool
	stopCh   chan struct{}
	loopDone chan struct{}
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithEventBus overrides the default (private) event bus with a shared
// one.
func WithEventBus(b *eventbus.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithFlushBlackOnStop makes Stop commit an all-black frame to every
// strip before the render loop exits, so a shutdown never leaves stale
// color latched on the hardware.
func WithFlushBlackOnStop() Option {
	return func(m *Manager) { m.flushBlackOnStop = true }
}

// New builds a Manager that renders at the given frames per second.
func New(fps int, opts ...Option) *Manager {
	m := &Manager{
		fps:      fps,
		logger:   log.Default(),
		bus:      eventbus.New(),
		metrics:  NewMetrics(),
		strips:   make(map[string]*stripState),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// EventBus exposes the manager's event bus so animation runners and API
// handlers can subscribe without a separate wiring path.
func (m *Manager) EventBus() *eventbus.Bus { return m.bus }

// Metrics returns the live counters.
func (m *Manager) Metrics() Snapshot { return m.metrics.Snapshot() }

// RegisterStrip adds strip zs under id, initializing its Zone Render
// State to all-black. Idempotent by strip identity: re-registering the
// same strip under the same id is a no-op. Registering a different strip
// under an existing id replaces the binding, and its queues and render
// state are recreated from scratch.
func (m *Manager) RegisterStrip(id string, zs *strip.ZoneStrip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ss, ok := m.strips[id]; ok && ss.zoneStrip == zs {
		return
	}
	m.strips[id] = newStripState(id, zs)
}

// RenderState returns a snapshot of one strip's render state, for
// diagnostics only.
func (m *Manager) RenderState(stripID string) (map[zone.ID]renderstate.Zone, bool) {
	m.mu.Lock()
	ss, ok := m.strips[stripID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return ss.renderState.Snapshot(), true
}

// Submit enqueues f onto stripID's priority queue. It never blocks the
// caller beyond the time needed to acquire the drain lock for the brief
// append; if ctx is cancelled while waiting, the lock is never partially
// acquired and no frame is enqueued.
func (m *Manager) Submit(ctx context.Context, stripID string, f *frame.Frame) error {
	m.mu.Lock()
	ss, ok := m.strips[stripID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown strip %q", stripID)
	}

	if err := acquire(ctx, ss.drainLock, drainLockTimeout); err != nil {
		return fmt.Errorf("submit: acquire drain lock: %w", err)
	}
	defer release(ss.drainLock)

	q, ok := ss.queues[f.Priority]
	if !ok {
		return &frame.InvalidFrameError{Reason: fmt.Sprintf("unknown priority %v", f.Priority)}
	}
	if q.push(f) {
		atomic.AddInt64(&m.metrics.FramesDroppedQueue, 1)
	}
	m.metrics.recordSubmit(f.Source, f.Priority)
	return nil
}

// Start spawns the render loop goroutine.
func (m *Manager) Start() {
	if !m.running.CompareAndSwap(false, true) {
		return
	}
	m.stopCh = make(chan struct{})
	m.loopDone = make(chan struct{})
	go m.renderLoop()
}

// Stop halts the render loop and waits for it to exit, within a bounded
// timeout. It is idempotent. If flushBlackOnStop was configured, one
// final all-black frame is committed to every strip before the loop
// exits.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	close(m.stopCh)
	select {
	case <-m.loopDone:
	case <-time.After(stopTimeout):
		m.logger.Printf("render loop did not stop within %v; abandoning wait", stopTimeout)
	}
}

func (m *Manager) renderLoop() {
	defer close(m.loopDone)

	interval := time.Second / time.Duration(m.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			if m.flushBlackOnStop {
				m.flushAllBlack()
			}
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Manager) tick() {
	atomic.AddInt64(&m.metrics.RenderLoopTicks, 1)
	m.mu.Lock()
	strips := make([]*stripState, 0, len(m.strips))
	for _, ss := range m.strips {
		strips = append(strips, ss)
	}
	m.mu.Unlock()

	for _, ss := range strips {
		m.renderStrip(ss)
	}
}

// renderStrip executes the per-tick selection, merge, and commit
// algorithm for one strip.
func (m *Manager) renderStrip(ss *stripState) {
	ctx, cancel := context.WithTimeout(context.Background(), drainLockTimeout)
	defer cancel()
	if err := acquire(ctx, ss.drainLock, drainLockTimeout); err != nil {
		atomic.AddInt64(&m.metrics.DrainLockTimeouts, 1)
		sizes := make(map[frame.Priority]int, len(ss.queues))
		for p, q := range ss.queues {
			sizes[p] = q.len()
		}
		m.logger.Printf("strip %s: drain lock timeout, queue sizes=%v", ss.id, sizes)
		return
	}
	defer release(ss.drainLock)

	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&m.metrics.RenderErrors, 1)
			m.logger.Printf("strip %s: render loop panic recovered: %v", ss.id, r)
		}
	}()

	now := time.Now()
	merged := make(map[zone.ID]frame.Update)
	mergedSource := make(map[zone.ID]frame.Source)
	selected := make(map[*frame.Frame]struct{})

	collectLevel := func(p frame.Priority) []*frame.Frame {
		valid, dropped := ss.queues[p].collect(now)
		if dropped > 0 {
			atomic.AddInt64(&m.metrics.FramesDroppedTTL, int64(dropped))
		}
		return valid
	}

	considerOverwrite := func(f *frame.Frame) {
		for zid, u := range f.Updates {
			merged[zid] = u
			mergedSource[zid] = f.Source
		}
		selected[f] = struct{}{}
	}

	// Base layer, ANIMATION. FIFO order means later entries in the slice
	// overwrite earlier ones for the same zone.
	for _, f := range collectLevel(frame.Animation) {
		considerOverwrite(f)
	}
	// Overlays: both target zones ANIMATION already claimed, and each
	// other. Processed so the highest overlay priority present is applied
	// last and so wins any shared zone (see overlayPriorities).
	for _, p := range overlayPriorities {
		for _, f := range collectLevel(p) {
			considerOverwrite(f)
		}
	}
	// Fillers only fill zones the layers above left untouched. They are
	// merged among themselves first, in ascending priority with overwrite
	// (and FIFO overwrite within one level), so the highest filler
	// priority wins a gap more than one filler wants, and none of them
	// ever displaces an ANIMATION or overlay contribution.
	fillerMerged := make(map[zone.ID]frame.Update)
	fillerSource := make(map[zone.ID]frame.Source)
	fillerOwner := make(map[zone.ID]*frame.Frame)
	for _, p := range fillerPriorities {
		for _, f := range collectLevel(p) {
			for zid, u := range f.Updates {
				fillerMerged[zid] = u
				fillerSource[zid] = f.Source
				fillerOwner[zid] = f
			}
		}
	}
	for zid, u := range fillerMerged {
		if _, exists := merged[zid]; exists {
			continue
		}
		merged[zid] = u
		mergedSource[zid] = fillerSource[zid]
		selected[fillerOwner[zid]] = struct{}{}
	}

	if len(merged) == 0 {
		return
	}

	if identicalSelection(selected, ss.lastSelected) {
		atomic.AddInt64(&m.metrics.CommitsSkipped, 1)
		return
	}

	full, err := ss.zoneStrip.BuildAndCommit(merged)
	if err != nil {
		atomic.AddInt64(&m.metrics.HWFailures, 1)
		m.logger.Printf("strip %s: hardware commit failed: %v", ss.id, err)
		return
	}

	// Dirty flags from the previous commit stay observable to diagnostic
	// readers until the next commit happens; clear them only now, just
	// before this commit's changes are recorded.
	ss.renderState.ClearDirty()
	for zid := range merged {
		ss.renderState.Update(zid, ss.zoneStrip.ZoneSlice(full, zid), mergedSource[zid], now)
	}
	ss.lastSelected = selected
	atomic.AddInt64(&m.metrics.FramesRendered, 1)
}

// identicalSelection reports whether a and b contain exactly the same
// frame object references (identity equality, not value equality).
func identicalSelection(a, b map[*frame.Frame]struct{}) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for f := range a {
		if _, ok := b[f]; !ok {
			return false
		}
	}
	return true
}

func (m *Manager) flushAllBlack() {
	m.mu.Lock()
	strips := make([]*stripState, 0, len(m.strips))
	for _, ss := range m.strips {
		strips = append(strips, ss)
	}
	m.mu.Unlock()

	for _, ss := range strips {
		blank := make(map[zone.ID]frame.Update)
		for _, id := range ss.zoneStrip.ZoneMap().Zones() {
			blank[id] = frame.SolidUpdate(color.Black)
		}
		ctx, cancel := context.WithTimeout(context.Background(), drainLockTimeout)
		if err := acquire(ctx, ss.drainLock, drainLockTimeout); err != nil {
			cancel()
			continue
		}
		if _, err := ss.zoneStrip.BuildAndCommit(blank); err != nil {
			m.logger.Printf("strip %s: shutdown black flush failed: %v", ss.id, err)
		}
		release(ss.drainLock)
		cancel()
	}
}
