// Package strip defines the Physical Strip Port contract and the Zone
// Strip that binds a zone map to a port, translating zone-indexed updates
// into a full-strip atomic write.
package strip

import "ledcore/internal/color"

// Port is the opaque hardware driver contract a Zone Strip commits
// through. Implementations must tolerate rapid load/commit cycles at
// the render loop's target FPS and may fail either call with a transient
// error; the render core treats any such failure as "skip this tick,
// retain the last known buffer".
//
// Load and Commit are not required to be reentrant; the caller (the Frame
// Manager) guarantees single-writer discipline by holding its drain lock
// across both calls.
type Port interface {
	// Load copies exactly PixelCount colors into the driver's transmit
	// buffer. No hardware effect occurs until Commit.
	Load(pixels []color.Color) error
	// Commit performs one atomic transfer of the loaded buffer to
	// hardware.
	Commit() error
	// GetPixel reads back the last successfully loaded color at index i.
	// It must reflect the last Load, not the last Commit, so preservation
	// semantics hold across a failed commit.
	GetPixel(i int) color.Color
	// PixelCount returns the fixed number of pixels this port drives.
	PixelCount() int
}
