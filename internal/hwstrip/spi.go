// Package hwstrip implements the Physical Strip Port over a real WS2812B
// strip driven from the MOSI line of a SPI port, the way periph.io's
// experimental ws2812b driver does it: the SPI clock supplies bit timing,
// and each LED bit is expanded to one nibble on the wire (1 -> 0xE,
// 0 -> 0x8), two bits per byte, MSB first, in GRB wire order.
package hwstrip

import (
	"fmt"
	"sync"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"

	"ledcore/internal/color"
)

// busSpeed is the SPI clock rate the WS2812B protocol expects when driven
// this way; periph.io's own driver notes this is sensitive to variance
// and recommends pinning the Pi's core clock when using it.
const busSpeed = 2400 * physic.KiloHertz

// bytesPerChannel: 4 SPI bits (one nibble) per WS2812B data bit, 8 data
// bits per channel, so 4 wire bytes per channel byte.
const bytesPerChannel = 4

// resetBytes pads the end of a transfer with enough low time to latch
// the strip (the WS2812B reset code).
const resetBytes = 3

// Port implements strip.Port over a periph.io SPI connection.
type Port struct {
	mu sync.Mutex

	conn       spi.Conn
	closer     spi.PortCloser
	pixelCount int

	loaded []color.Color
	wire   []byte
}

// Open opens the named SPI port (e.g. "/dev/spidev0.0") and returns a Port
// driving n WS2812B pixels. Callers must have already called
// periph.io/x/periph/host.Init() once at process startup.
func Open(name string, n int) (*Port, error) {
	pc, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %s: %w", name, err)
	}
	p, err := NewFromPort(pc, n)
	if err != nil {
		pc.Close()
		return nil, err
	}
	p.closer = pc
	return p, nil
}

// NewFromPort connects to an already-open SPI port. It is the seam the
// tests use to drive the encoder against spitest's record/replay ports.
func NewFromPort(sp spi.Port, n int) (*Port, error) {
	conn, err := sp.Connect(busSpeed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("connect spi port %s: %w", sp, err)
	}
	return &Port{
		conn:       conn,
		pixelCount: n,
		loaded:     make([]color.Color, n),
		wire:       make([]byte, n*3*bytesPerChannel+resetBytes),
	}, nil
}

// Close releases the underlying SPI port, if this Port owns one.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func (p *Port) PixelCount() int { return p.pixelCount }

// Load encodes pixels into the WS2812B wire waveform and stages it. No
// hardware transfer happens until Commit.
func (p *Port) Load(pixels []color.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(pixels) != p.pixelCount {
		return fmt.Errorf("expected %d pixels, got %d", p.pixelCount, len(pixels))
	}
	copy(p.loaded, pixels)
	encode(p.wire, p.loaded)
	return nil
}

// Commit transmits the staged waveform over SPI in one Tx call, the one
// atomic transfer the render core relies on.
func (p *Port) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.Tx(p.wire, nil); err != nil {
		return fmt.Errorf("spi tx: %w", err)
	}
	return nil
}

// GetPixel reads back the last successfully loaded color, not the last
// committed one, so preservation holds even if Commit later fails.
func (p *Port) GetPixel(i int) color.Color {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.loaded) {
		return color.Black
	}
	return p.loaded[i]
}

// encode fills dst with the WS2812B SPI waveform for pixels, in GRB wire
// order, followed by a low reset tail.
func encode(dst []byte, pixels []color.Color) {
	pos := 0
	for _, c := range pixels {
		pos = encodeChannel(dst, pos, c.G)
		pos = encodeChannel(dst, pos, c.R)
		pos = encodeChannel(dst, pos, c.B)
	}
	for i := pos; i < len(dst); i++ {
		dst[i] = 0
	}
}

// encodeChannel writes one channel byte as 4 wire bytes (one nibble per
// bit) starting at pos, and returns the new position.
func encodeChannel(dst []byte, pos int, v uint8) int {
	for byteIdx := 0; byteIdx < bytesPerChannel; byteIdx++ {
		var b byte
		for nibble := 0; nibble < 2; nibble++ {
			bitIdx := byteIdx*2 + nibble
			bit := (v >> uint(7-bitIdx)) & 1
			var nib byte = 0x8
			if bit == 1 {
				nib = 0xE
			}
			b = b<<4 | nib
		}
		dst[pos] = b
		pos++
	}
	return pos
}
