package config

import (
	"fmt"
	"strconv"
	"strings"

	"ledcore/internal/zone"
)

// ParseZoneLayout parses a "name:start:length[:reversed]" list, separated
// by ";", into a zone.Map covering pixelCount pixels. An empty spec
// defaults to a single FLOOR zone spanning the whole strip.
func ParseZoneLayout(spec string, pixelCount int) (*zone.Map, error) {
	zm := zone.NewMap(pixelCount)
	spec = strings.TrimSpace(spec)
	if spec == "" {
		zm.Add(zone.Floor, 0, pixelCount, false)
		if err := zm.Validate(); err != nil {
			return nil, err
		}
		return zm, nil
	}

	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 3 {
			return nil, fmt.Errorf("zone entry %q: expected name:start:length[:reversed]", entry)
		}
		start, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("zone entry %q: bad start: %w", entry, err)
		}
		length, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("zone entry %q: bad length: %w", entry, err)
		}
		reversed := false
		if len(parts) >= 4 {
			reversed, err = strconv.ParseBool(parts[3])
			if err != nil {
				return nil, fmt.Errorf("zone entry %q: bad reversed flag: %w", entry, err)
			}
		}
		zm.Add(zone.ID(parts[0]), start, length, reversed)
	}
	if err := zm.Validate(); err != nil {
		return nil, err
	}
	return zm, nil
}
