// Package config parses the flags and environment variables the render
// core binary is started with, using a flag.FlagSet and environment
// variable fallbacks for containerized deployments.
package config

import (
	"flag"
	"os"
	"strconv"
)

// Config holds the process-level settings the render core needs at
// startup.
type Config struct {
	SPIDevice  string
	APIPort    int
	FPS        int
	PixelCount int
	ZoneLayout string
	// FlushBlackOnStop commits one all-black frame to every strip on
	// shutdown.
	FlushBlackOnStop bool
	// PreviewPixelCount sizes the software-simulated PREVIEW strip,
	// registered as an additional strip alongside the main one.
	PreviewPixelCount int
}

// Parse reads flags, falling back to environment variables, then to
// built-in defaults (/dev/spidev1.0, :8080).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("ledcored", flag.ContinueOnError)

	spiDevice := fs.String("spi", envOr("LEDCORE_SPI", "/dev/spidev1.0"), "SPI device path")
	apiPort := fs.Int("port", envIntOr("LEDCORE_PORT", 8080), "Web API listen port")
	fps := fs.Int("fps", envIntOr("LEDCORE_FPS", 60), "render loop frames per second")
	flushBlack := fs.Bool("flush-black-on-stop", envBoolOr("LEDCORE_FLUSH_BLACK", false), "commit one all-black frame to every strip on shutdown")
	pixelCount := fs.Int("pixels", envIntOr("LEDCORE_PIXELS", 60), "number of pixels on the main strip")
	zoneLayout := fs.String("zones", envOr("LEDCORE_ZONES", ""), "zone layout as name:start:length[:reversed] pairs separated by ';'")
	previewPixels := fs.Int("preview-pixels", envIntOr("LEDCORE_PREVIEW_PIXELS", 60), "pixel count of the simulated PREVIEW strip")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Config{
		SPIDevice:         *spiDevice,
		APIPort:           *apiPort,
		FPS:               *fps,
		PixelCount:        *pixelCount,
		ZoneLayout:        *zoneLayout,
		FlushBlackOnStop:  *flushBlack,
		PreviewPixelCount: *previewPixels,
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
