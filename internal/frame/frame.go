// Package frame defines the tagged frame record submitted by producers to
// the render core, its priority/TTL discipline, and the zone update payload.
package frame

import (
	"fmt"
	"time"

	"ledcore/internal/color"
	"ledcore/internal/zone"
)

// Priority orders frames for selection and merging. Higher values win
// overlay merges; ANIMATION is the base layer every other priority
// overlays onto or fills gaps in.
type Priority int

const (
	Idle       Priority = 0
	Manual     Priority = 10
	Pulse      Priority = 20
	Animation  Priority = 30
	Transition Priority = 40
	Debug      Priority = 50
)

// Levels lists every priority level in ascending order, matching the six
// bounded queues the Frame Manager keeps per strip.
var Levels = []Priority{Idle, Manual, Pulse, Animation, Transition, Debug}

func (p Priority) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Manual:
		return "MANUAL"
	case Pulse:
		return "PULSE"
	case Animation:
		return "ANIMATION"
	case Transition:
		return "TRANSITION"
	case Debug:
		return "DEBUG"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Source identifies a frame's producer category.
type Source string

const (
	SourceManual     Source = "manual"
	SourcePulse      Source = "pulse"
	SourceAnimation  Source = "animation"
	SourceTransition Source = "transition"
	SourceDebug      Source = "debug"
)

// Update is the sum type carried per zone: either a solid color or
// explicit per-pixel colors.
type Update struct {
	// Solid is used when PerPixel is nil.
	Solid color.Color
	// PerPixel, if non-nil, overrides Solid with explicit pixel colors.
	// Its length must equal the target zone's length.
	PerPixel []color.Color
}

// SolidUpdate builds a zone update that paints the whole zone one color.
func SolidUpdate(c color.Color) Update {
	return Update{Solid: c}
}

// PerPixelUpdate builds a zone update from explicit per-pixel colors.
func PerPixelUpdate(cs []color.Color) Update {
	return Update{PerPixel: cs}
}

// IsPerPixel reports whether u carries explicit per-pixel colors.
func (u Update) IsPerPixel() bool { return u.PerPixel != nil }

// MaxTTL bounds how long any single frame may stay selectable. Producers
// that want persistent output resubmit; a day-long TTL is a bug, not an
// intent.
const MaxTTL = time.Hour

// Frame is one submission: a set of per-zone updates tagged with priority,
// source, creation time, and a time-to-live.
type Frame struct {
	Priority  Priority
	Source    Source
	CreatedAt time.Time
	TTL       time.Duration
	Updates   map[zone.ID]Update
}

// New constructs a Frame, validating it against the strip's zone map.
// Construction fails if Updates is empty, references an unknown zone, or
// contains a PerPixel update whose length mismatches the zone's length.
func New(priority Priority, source Source, ttl time.Duration, updates map[zone.ID]Update, zm *zone.Map, now time.Time) (*Frame, error) {
	if len(updates) == 0 {
		return nil, &InvalidFrameError{Reason: "updates must be non-empty"}
	}
	if ttl < 0 {
		return nil, &InvalidFrameError{Reason: fmt.Sprintf("negative ttl %v", ttl)}
	}
	if ttl > MaxTTL {
		return nil, &InvalidFrameError{Reason: fmt.Sprintf("ttl %v exceeds maximum %v", ttl, MaxTTL)}
	}
	for id, u := range updates {
		if !zm.Has(id) {
			return nil, &InvalidFrameError{Reason: fmt.Sprintf("unknown zone %s", id)}
		}
		if u.IsPerPixel() {
			r, _ := zm.Range(id)
			if len(u.PerPixel) != r.Length {
				return nil, &InvalidFrameError{Reason: fmt.Sprintf("zone %s: per-pixel length %d != zone length %d", id, len(u.PerPixel), r.Length)}
			}
		}
	}
	return &Frame{
		Priority:  priority,
		Source:    source,
		CreatedAt: now,
		TTL:       ttl,
		Updates:   updates,
	}, nil
}

// IsExpired reports whether the frame's TTL has elapsed as of now. A TTL of
// zero makes the frame valid only at its exact creation instant; the
// render loop's queue grants such a frame its one tick separately.
func (f *Frame) IsExpired(now time.Time) bool {
	return now.Sub(f.CreatedAt) > f.TTL
}

// IsPartial reports whether f omits at least one of the strip's zones.
func (f *Frame) IsPartial(zm *zone.Map) bool {
	for _, id := range zm.Zones() {
		if _, ok := f.Updates[id]; !ok {
			return true
		}
	}
	return false
}

// InvalidFrameError is returned by submission-time validation.
type InvalidFrameError struct {
	Reason string
}

func (e *InvalidFrameError) Error() string {
	return fmt.Sprintf("invalid frame: %s", e.Reason)
}
