package zone

import "testing"

func TestValidateCoversWholeStrip(t *testing.T) {
	m := NewMap(20)
	m.Add(Floor, 0, 15, false)
	m.Add(Lamp, 15, 5, false)
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid map, got %v", err)
	}
}

func TestValidateRejectsGap(t *testing.T) {
	m := NewMap(20)
	m.Add(Floor, 0, 10, false)
	m.Add(Lamp, 15, 5, false)
	if err := m.Validate(); err == nil {
		t.Fatal("expected gap (pixels 10-14 uncovered) to be rejected")
	}
}

func TestValidateRejectsOverlap(t *testing.T) {
	m := NewMap(20)
	m.Add(Floor, 0, 15, false)
	m.Add(Lamp, 10, 10, false)
	if err := m.Validate(); err == nil {
		t.Fatal("expected overlap to be rejected")
	}
}

func TestValidateRejectsZeroLength(t *testing.T) {
	m := NewMap(5)
	m.Add(Floor, 0, 5, false)
	m.Add(Lamp, 5, 0, false)
	if err := m.Validate(); err == nil {
		t.Fatal("expected zero-length zone to be rejected")
	}
}

func TestZoneAt(t *testing.T) {
	m := NewMap(20)
	m.Add(Floor, 0, 15, false)
	m.Add(Lamp, 15, 5, false)
	if id, ok := m.ZoneAt(17); !ok || id != Lamp {
		t.Fatalf("expected LAMP at pixel 17, got %v %v", id, ok)
	}
	if _, ok := m.ZoneAt(20); ok {
		t.Fatal("expected no zone at out-of-range index")
	}
}
