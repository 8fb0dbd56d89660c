package config

import (
	"testing"

	"ledcore/internal/zone"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SPIDevice != "/dev/spidev1.0" {
		t.Fatalf("unexpected default SPI device %q", cfg.SPIDevice)
	}
	if cfg.APIPort != 8080 || cfg.FPS != 60 || cfg.PixelCount != 60 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.FlushBlackOnStop {
		t.Fatal("flush-black should default off")
	}
}

func TestParseFlagsOverride(t *testing.T) {
	cfg, err := Parse([]string{"-spi", "/dev/spidev0.1", "-fps", "30", "-pixels", "90", "-flush-black-on-stop"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SPIDevice != "/dev/spidev0.1" || cfg.FPS != 30 || cfg.PixelCount != 90 || !cfg.FlushBlackOnStop {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestParseEnvFallback(t *testing.T) {
	t.Setenv("LEDCORE_FPS", "24")
	t.Setenv("LEDCORE_PORT", "9090")
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FPS != 24 || cfg.APIPort != 9090 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv("LEDCORE_FPS", "24")
	cfg, err := Parse([]string{"-fps", "30"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FPS != 30 {
		t.Fatalf("expected flag to beat env, got %d", cfg.FPS)
	}
}

func TestZoneLayoutDefaultSingleZone(t *testing.T) {
	zm, err := ParseZoneLayout("", 30)
	if err != nil {
		t.Fatal(err)
	}
	r, ok := zm.Range(zone.Floor)
	if !ok || r.Start != 0 || r.Length != 30 {
		t.Fatalf("expected FLOOR spanning the strip, got %+v %v", r, ok)
	}
}

func TestZoneLayoutMultiZone(t *testing.T) {
	zm, err := ParseZoneLayout("FLOOR:0:15;LAMP:15:5:true", 20)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := zm.Range(zone.Lamp)
	if r.Start != 15 || r.Length != 5 || !r.Reversed {
		t.Fatalf("unexpected LAMP range %+v", r)
	}
}

func TestZoneLayoutRejectsGaps(t *testing.T) {
	if _, err := ParseZoneLayout("FLOOR:0:10", 20); err == nil {
		t.Fatal("expected uncovered pixels to be rejected")
	}
}

func TestZoneLayoutRejectsMalformedEntry(t *testing.T) {
	if _, err := ParseZoneLayout("FLOOR:0", 20); err == nil {
		t.Fatal("expected malformed entry to be rejected")
	}
	if _, err := ParseZoneLayout("FLOOR:x:20", 20); err == nil {
		t.Fatal("expected non-numeric start to be rejected")
	}
}
