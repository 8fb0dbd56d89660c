package frame

import (
	"testing"
	"time"

	"ledcore/internal/color"
	"ledcore/internal/zone"
)

func testZoneMap() *zone.Map {
	zm := zone.NewMap(20)
	zm.Add(zone.Floor, 0, 15, false)
	zm.Add(zone.Lamp, 15, 5, false)
	return zm
}

func TestNewRejectsEmptyUpdates(t *testing.T) {
	zm := testZoneMap()
	_, err := New(Manual, SourceManual, time.Second, map[zone.ID]Update{}, zm, time.Now())
	if err == nil {
		t.Fatal("expected empty updates to be rejected")
	}
}

func TestNewRejectsUnknownZone(t *testing.T) {
	zm := testZoneMap()
	updates := map[zone.ID]Update{"NOPE": SolidUpdate(color.New(1, 2, 3))}
	_, err := New(Manual, SourceManual, time.Second, updates, zm, time.Now())
	if err == nil {
		t.Fatal("expected unknown zone to be rejected")
	}
}

func TestNewRejectsPerPixelLengthMismatch(t *testing.T) {
	zm := testZoneMap()
	updates := map[zone.ID]Update{
		zone.Lamp: PerPixelUpdate(make([]color.Color, 3)), // LAMP has length 5
	}
	_, err := New(Manual, SourceManual, time.Second, updates, zm, time.Now())
	if err == nil {
		t.Fatal("expected per-pixel length mismatch to be rejected")
	}
}

func TestNewRejectsNegativeTTL(t *testing.T) {
	zm := testZoneMap()
	updates := map[zone.ID]Update{zone.Floor: SolidUpdate(color.Black)}
	_, err := New(Manual, SourceManual, -time.Second, updates, zm, time.Now())
	if err == nil {
		t.Fatal("expected negative ttl to be rejected")
	}
}

func TestNewRejectsAbsurdTTL(t *testing.T) {
	zm := testZoneMap()
	updates := map[zone.ID]Update{zone.Floor: SolidUpdate(color.Black)}
	if _, err := New(Manual, SourceManual, 25*time.Hour, updates, zm, time.Now()); err == nil {
		t.Fatal("expected absurd ttl to be rejected")
	}
}

func TestIsExpired(t *testing.T) {
	zm := testZoneMap()
	now := time.Now()
	updates := map[zone.ID]Update{zone.Floor: SolidUpdate(color.Black)}
	f, err := New(Manual, SourceManual, 100*time.Millisecond, updates, zm, now)
	if err != nil {
		t.Fatal(err)
	}
	if f.IsExpired(now.Add(50 * time.Millisecond)) {
		t.Fatal("should not be expired yet")
	}
	if !f.IsExpired(now.Add(150 * time.Millisecond)) {
		t.Fatal("should be expired")
	}
}

func TestZeroTTLValidOnlyAtCreation(t *testing.T) {
	zm := testZoneMap()
	now := time.Now()
	updates := map[zone.ID]Update{zone.Floor: SolidUpdate(color.Black)}
	f, err := New(Manual, SourceManual, 0, updates, zm, now)
	if err != nil {
		t.Fatal(err)
	}
	if f.IsExpired(now) {
		t.Fatal("ttl=0 frame should be valid exactly at its creation instant")
	}
	if !f.IsExpired(now.Add(time.Nanosecond)) {
		t.Fatal("ttl=0 frame should expire immediately after creation")
	}
}

func TestIsPartial(t *testing.T) {
	zm := testZoneMap()
	updates := map[zone.ID]Update{zone.Floor: SolidUpdate(color.Black)}
	f, err := New(Manual, SourceManual, time.Second, updates, zm, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsPartial(zm) {
		t.Fatal("frame covering only FLOOR should be partial")
	}
}
