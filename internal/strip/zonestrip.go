package strip

import (
	"fmt"

	"ledcore/internal/color"
	"ledcore/internal/frame"
	"ledcore/internal/zone"
)

// ZoneStrip composes one zone Map with one Port, translating per-zone
// updates into the full pixel array the port expects and committing it in
// a single atomic transfer.
type ZoneStrip struct {
	ID   string
	zm   *zone.Map
	port Port
}

// New binds a zone map to a port. The zone map's pixel count must match
// the port's.
func New(id string, zm *zone.Map, port Port) (*ZoneStrip, error) {
	if zm.PixelCount() != port.PixelCount() {
		return nil, fmt.Errorf("zone map pixel count %d != port pixel count %d", zm.PixelCount(), port.PixelCount())
	}
	if err := zm.Validate(); err != nil {
		return nil, fmt.Errorf("zone map invalid: %w", err)
	}
	return &ZoneStrip{ID: id, zm: zm, port: port}, nil
}

// ZoneMap returns the strip's static zone mapping.
func (z *ZoneStrip) ZoneMap() *zone.Map { return z.zm }

// BuildAndCommit assembles a full pixel array from per-zone updates,
// preserving the previously loaded pixel for any zone absent from the
// map, and commits it in one atomic load+commit pair.
//
// It returns the full pixel array that was committed, sliced per zone by
// the caller for render-state bookkeeping.
func (z *ZoneStrip) BuildAndCommit(perZone map[zone.ID]frame.Update) ([]color.Color, error) {
	n := z.zm.PixelCount()
	pixels := make([]color.Color, n)

	for _, id := range z.zm.Zones() {
		r, _ := z.zm.Range(id)
		update, present := perZone[id]
		for offset := 0; offset < r.Length; offset++ {
			i := r.Start + offset
			if !present {
				pixels[i] = z.port.GetPixel(i)
				continue
			}
			pixels[i] = z.pixelFor(update, r, offset)
		}
	}

	if err := z.port.Load(pixels); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := z.port.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return pixels, nil
}

// pixelFor computes the color for one pixel of a zone given its update
// value, honoring the zone's reversed flag for PerPixel updates. Solid
// updates are reversal-invariant.
func (z *ZoneStrip) pixelFor(u frame.Update, r zone.Range, offset int) color.Color {
	if !u.IsPerPixel() {
		return u.Solid
	}
	idx := offset
	if r.Reversed {
		idx = r.Length - 1 - offset
	}
	return u.PerPixel[idx]
}

// ZoneSlice extracts the committed pixels belonging to one zone from a
// full pixel array built by BuildAndCommit.
func (z *ZoneStrip) ZoneSlice(full []color.Color, id zone.ID) []color.Color {
	r, ok := z.zm.Range(id)
	if !ok {
		return nil
	}
	out := make([]color.Color, r.Length)
	copy(out, full[r.Start:r.Start+r.Length])
	return out
}
