package animation

import (
	"fmt"
	"math"
	"time"

	lua "github.com/yuin/gopher-lua"

	"ledcore/internal/color"
	"ledcore/internal/frame"
	"ledcore/internal/zone"
)

// fixColor applies a gamma-2 perceptual curve with a per-channel bias,
// so a Lua script's 0.0-1.0 output maps to a more natural-looking LED
// intensity than a linear scale would.
func fixColor(r, g, b float64) (uint8, uint8, uint8) {
	const maxU8 = 255.0
	rOut := math.Pow(r, 2.0) * maxU8
	gOut := math.Pow(g, 2.0) * (maxU8 * (0x88 / maxU8))
	bOut := math.Pow(b, 2.0) * (maxU8 * (0x66 / maxU8))
	return uint8(math.Min(255, math.Max(0, rOut))),
		uint8(math.Min(255, math.Max(0, gOut))),
		uint8(math.Min(255, math.Max(0, bOut)))
}

// LuaAnimation drives a Lua script once per Step, exposing get_time and
// set_pixel/get_pixel globals scoped to one zone. Each Step gets a fresh
// lua.LState, so a script's only persistent state is whatever it derives
// from get_time(); that keeps scripts safe to run concurrently across
// zones.
type LuaAnimation struct {
	Code       string
	ZoneID     zone.ID
	ZoneMap    *zone.Map
	Prio       frame.Priority
	Src        frame.Source
	TTL        time.Duration
	zoneLength int
	startTime  time.Time
}

// NewLuaAnimation builds a scripted animation targeting one zone.
func NewLuaAnimation(code string, zoneID zone.ID, zm *zone.Map, priority frame.Priority, source frame.Source, ttl time.Duration) (*LuaAnimation, error) {
	r, ok := zm.Range(zoneID)
	if !ok {
		return nil, fmt.Errorf("unknown zone %s", zoneID)
	}
	return &LuaAnimation{
		Code:       code,
		ZoneID:     zoneID,
		ZoneMap:    zm,
		Prio:       priority,
		Src:        source,
		TTL:        ttl,
		zoneLength: r.Length,
		startTime:  time.Now(),
	}, nil
}

func (a *LuaAnimation) Priority() frame.Priority { return a.Prio }
func (a *LuaAnimation) Source() frame.Source     { return a.Src }

// Step runs the Lua script once and turns its set_pixel calls into a
// PerPixel frame update for this animation's zone.
func (a *LuaAnimation) Step() (*frame.Frame, error) {
	buf := make([]color.Color, a.zoneLength)

	L := lua.NewState()
	defer L.Close()

	elapsed := time.Since(a.startTime).Seconds()
	setupLuaGlobals(L, buf, elapsed)

	if err := L.DoString(a.Code); err != nil {
		return nil, fmt.Errorf("lua animation %s: %w", a.ZoneID, err)
	}

	updates := map[zone.ID]frame.Update{a.ZoneID: frame.PerPixelUpdate(buf)}
	now := time.Now()
	return frame.New(a.Prio, a.Src, a.TTL, updates, a.ZoneMap, now)
}

// setupLuaGlobals exposes ZoneLength, get_time, set_pixel, and get_pixel
// to the Lua script.
func setupLuaGlobals(L *lua.LState, buf []color.Color, elapsed float64) {
	L.SetGlobal("ZoneLength", lua.LNumber(len(buf)))

	L.SetGlobal("get_time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(elapsed))
		return 1
	}))

	L.SetGlobal("get_pixel", L.NewClosure(func(L *lua.LState) int {
		index := int(L.CheckNumber(1))
		if index >= 0 && index < len(buf) {
			c := buf[index]
			L.Push(lua.LNumber(float64(c.R) / 255.0))
			L.Push(lua.LNumber(float64(c.G) / 255.0))
			L.Push(lua.LNumber(float64(c.B) / 255.0))
			return 3
		}
		L.Push(lua.LNumber(0.0))
		L.Push(lua.LNumber(0.0))
		L.Push(lua.LNumber(0.0))
		return 3
	}))

	L.SetGlobal("set_pixel", L.NewClosure(func(L *lua.LState) int {
		index := int(L.CheckNumber(1))
		rIn := float64(L.CheckNumber(2))
		gIn := float64(L.CheckNumber(3))
		bIn := float64(L.CheckNumber(4))

		r, g, b := fixColor(
			math.Max(0, math.Min(1, rIn)),
			math.Max(0, math.Min(1, gIn)),
			math.Max(0, math.Min(1, bIn)),
		)
		if index >= 0 && index < len(buf) {
			buf[index] = color.New(r, g, b)
		}
		return 0
	}))
}
