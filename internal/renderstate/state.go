// Package renderstate holds the runtime-only per-zone "last rendered"
// cache used for fallback and diagnostics. It is never persisted.
package renderstate

import (
	"sync"
	"time"

	"ledcore/internal/color"
	"ledcore/internal/frame"
	"ledcore/internal/zone"
)

// Zone is the last-rendered cache for a single zone. Dirty reports
// whether the pixels changed in the most recent commit; it is cleared
// when the next commit's state is recorded.
type Zone struct {
	Pixels       []color.Color
	LastSource   frame.Source
	LastUpdateTS time.Time
	Dirty        bool
}

// Store holds one Zone render state per zone of a strip. Writes come
// from the render loop; Snapshot and Get are safe to call from
// diagnostic readers on other goroutines.
type Store struct {
	mu    sync.Mutex
	zones map[zone.ID]*Zone
}

// NewStore initializes a Store with every zone set to all-black.
func NewStore(zm *zone.Map) *Store {
	s := &Store{zones: make(map[zone.ID]*Zone)}
	for _, id := range zm.Zones() {
		r, _ := zm.Range(id)
		pixels := make([]color.Color, r.Length)
		for i := range pixels {
			pixels[i] = color.Black
		}
		s.zones[id] = &Zone{Pixels: pixels}
	}
	return s
}

// Get returns a copy of one zone's render state.
func (s *Store) Get(id zone.ID) (Zone, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[id]
	if !ok {
		return Zone{}, false
	}
	return *z, true
}

// Update overwrites a zone's cached pixels after a successful commit,
// stamping the source and timestamp and setting Dirty if the pixels
// actually changed. The pixels slice is owned by the Store afterwards;
// callers pass a fresh slice per commit.
func (s *Store) Update(id zone.ID, pixels []color.Color, source frame.Source, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z, ok := s.zones[id]
	if !ok {
		return
	}
	changed := len(z.Pixels) != len(pixels)
	if !changed {
		for i := range pixels {
			if z.Pixels[i] != pixels[i] {
				changed = true
				break
			}
		}
	}
	z.Pixels = pixels
	z.LastSource = source
	z.LastUpdateTS = ts
	z.Dirty = changed
}

// ClearDirty clears the dirty flag for every zone. The render loop calls
// it at the start of recording a new commit, so flags from the previous
// commit stay visible to readers in between.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, z := range s.zones {
		z.Dirty = false
	}
}

// Snapshot returns a read-only copy of every zone's state, for
// diagnostics. Callers must not mutate the returned map's slices.
func (s *Store) Snapshot() map[zone.ID]Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[zone.ID]Zone, len(s.zones))
	for id, z := range s.zones {
		out[id] = *z
	}
	return out
}
