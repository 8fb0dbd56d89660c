package animation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ledcore/internal/eventbus"
	"ledcore/internal/frame"
	"ledcore/internal/registry"
	"ledcore/internal/zone"
)

// stopTimeout bounds how long Stop waits for a runner goroutine to exit
// before detaching it and marking it lost in the task registry.
const stopTimeout = 1 * time.Second

// Submitter is the subset of the Frame Manager a runner needs. Kept as an
// interface so this package never imports manager, avoiding a cycle
// (manager can in turn depend on nothing here).
type Submitter interface {
	Submit(ctx context.Context, stripID string, f *frame.Frame) error
}

// State is a runner's place in the per-zone Idle/Starting/Running/
// Stopping state machine.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

type runner struct {
	stripID string
	zoneID  zone.ID
	anim    Animation

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
}

// Runners serializes animation start/stop per zone and drives each
// runner's step loop.
type Runners struct {
	submitter Submitter
	bus       *eventbus.Bus
	registry  *registry.Registry
	fps       int
	logger    *log.Logger

	mu     sync.Mutex
	byZone map[zone.ID]*runner
}

// NewRunners builds a Runners driving animations at fps ticks/sec,
// forwarding frames to submitter.
func NewRunners(submitter Submitter, bus *eventbus.Bus, reg *registry.Registry, fps int, logger *log.Logger) *Runners {
	if logger == nil {
		logger = log.Default()
	}
	return &Runners{
		submitter: submitter,
		bus:       bus,
		registry:  reg,
		fps:       fps,
		logger:    logger,
		byZone:    make(map[zone.ID]*runner),
	}
}

// Start spawns a runner task driving anim against zoneID on stripID, and
// begins stepping. If zoneID already has a running animation, it is
// implicitly stopped first. The wait for the old runner happens outside
// rs.mu, so a stuck runner on one zone never blocks start/stop on
// another.
func (rs *Runners) Start(stripID string, zoneID zone.ID, anim Animation) {
	rs.mu.Lock()
	existing := rs.byZone[zoneID]
	delete(rs.byZone, zoneID)
	rs.mu.Unlock()

	if existing != nil {
		rs.stopAndWait(zoneID, existing)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{
		stripID: stripID,
		zoneID:  zoneID,
		anim:    anim,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StateStarting,
	}
	rs.mu.Lock()
	rs.byZone[zoneID] = r
	rs.mu.Unlock()
	rs.registry.Register(taskName(stripID, zoneID))

	go rs.runLoop(ctx, r)
	rs.bus.Publish(eventbus.Event{Type: eventbus.AnimationStarted, Zone: zoneID})
}

// StateOf returns the current lifecycle state of zoneID's runner, or
// StateIdle if none is registered.
func (rs *Runners) StateOf(zoneID zone.ID) State {
	rs.mu.Lock()
	r, ok := rs.byZone[zoneID]
	rs.mu.Unlock()
	if !ok {
		return StateIdle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Stop cancels the running animation on zoneID and waits for it to exit
// within a bounded timeout. Safe to call concurrently with Start/Stop on
// other zones.
func (rs *Runners) Stop(zoneID zone.ID) {
	rs.mu.Lock()
	r, ok := rs.byZone[zoneID]
	if ok {
		delete(rs.byZone, zoneID)
	}
	rs.mu.Unlock()

	if !ok {
		return
	}
	rs.stopAndWait(zoneID, r)
}

// stopAndWait cancels r and waits for it, outside of rs.mu so unrelated
// zones are never blocked by one slow stop.
func (rs *Runners) stopAndWait(zoneID zone.ID, r *runner) {
	r.mu.Lock()
	r.state = StateStopping
	r.mu.Unlock()

	r.cancel()
	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		rs.logger.Printf("animation runner %s did not stop within %v; detaching", taskName(r.stripID, zoneID), stopTimeout)
		rs.registry.MarkLost(taskName(r.stripID, zoneID))
	}
}

func (rs *Runners) runLoop(ctx context.Context, r *runner) {
	defer close(r.done)
	defer rs.finish(r)

	r.mu.Lock()
	r.state = StateRunning
	r.mu.Unlock()

	interval := time.Second / time.Duration(rs.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, err := r.anim.Step()
		if err != nil {
			rs.logger.Printf("animation %s/%s: step failed, stopping: %v", r.stripID, r.zoneID, err)
			return
		}
		if f != nil {
			if err := rs.submitter.Submit(ctx, r.stripID, f); err != nil && ctx.Err() == nil {
				rs.logger.Printf("animation %s/%s: submit failed: %v", r.stripID, r.zoneID, err)
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// finish marks the runner stopped in the registry and publishes the
// AnimationStopped event exactly once, regardless of whether the loop
// exited via cancellation, a step() fault, or falling off the end.
func (rs *Runners) finish(r *runner) {
	r.mu.Lock()
	r.state = StateIdle
	r.mu.Unlock()

	rs.registry.MarkStopped(taskName(r.stripID, r.zoneID))
	rs.bus.Publish(eventbus.Event{Type: eventbus.AnimationStopped, Zone: r.zoneID})
}

func taskName(stripID string, zoneID zone.ID) string {
	return fmt.Sprintf("animation:%s:%s", stripID, zoneID)
}
