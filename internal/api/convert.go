package api

import (
	"fmt"
	"strconv"
	"strings"

	"ledcore/internal/color"
	"ledcore/internal/frame"
)

func parsePriority(s string) (frame.Priority, error) {
	switch strings.ToUpper(s) {
	case "IDLE":
		return frame.Idle, nil
	case "MANUAL":
		return frame.Manual, nil
	case "PULSE":
		return frame.Pulse, nil
	case "ANIMATION":
		return frame.Animation, nil
	case "TRANSITION":
		return frame.Transition, nil
	case "DEBUG":
		return frame.Debug, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func parseSource(s string) frame.Source {
	return frame.Source(strings.ToLower(s))
}

// parseHexColor parses a "#RRGGBB" or "RRGGBB" string into a Color.
func parseHexColor(s string) (color.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.Color{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.New(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

// parseHexColors parses a list of "#RRGGBB" strings into Colors.
func parseHexColors(hexes []string) ([]color.Color, error) {
	out := make([]color.Color, len(hexes))
	for i, h := range hexes {
		c, err := parseHexColor(h)
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}
