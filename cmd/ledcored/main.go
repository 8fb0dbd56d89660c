// Command ledcored is the render core's binary entry point: it wires the
// Frame Manager to a hardware (or simulated) strip and a gin HTTP API.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ledcore/internal/api"
	"ledcore/internal/animation"
	"ledcore/internal/config"
	"ledcore/internal/eventbus"
	"ledcore/internal/hwstrip"
	"ledcore/internal/manager"
	"ledcore/internal/registry"
	"ledcore/internal/simstrip"
	"ledcore/internal/strip"
	"ledcore/internal/zone"

	periphhost "periph.io/x/periph/host"
)

const mainStripID = "main"
const previewStripID = "preview"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	log.Printf("starting LED render core")

	zm, err := config.ParseZoneLayout(cfg.ZoneLayout, cfg.PixelCount)
	if err != nil {
		log.Fatalf("invalid zone layout: %v", err)
	}

	var port strip.Port
	if _, err := periphhost.Init(); err != nil {
		log.Printf("periph host init failed (%v); falling back to the simulated strip", err)
		port = simstrip.New(cfg.PixelCount)
	} else {
		hw, err := hwstrip.Open(cfg.SPIDevice, cfg.PixelCount)
		if err != nil {
			log.Printf("unable to open SPI device %s (%v); falling back to the simulated strip", cfg.SPIDevice, err)
			port = simstrip.New(cfg.PixelCount)
		} else {
			defer hw.Close()
			port = hw
		}
	}

	mainStrip, err := strip.New(mainStripID, zm, port)
	if err != nil {
		log.Fatalf("build main strip: %v", err)
	}

	previewZM := zone.NewMap(cfg.PreviewPixelCount)
	previewZM.Add(zone.Preview, 0, cfg.PreviewPixelCount, false)
	previewStrip, err := strip.New(previewStripID, previewZM, simstrip.New(cfg.PreviewPixelCount))
	if err != nil {
		log.Fatalf("build preview strip: %v", err)
	}

	var opts []manager.Option
	if cfg.FlushBlackOnStop {
		opts = append(opts, manager.WithFlushBlackOnStop())
	}
	mgr := manager.New(cfg.FPS, opts...)
	mgr.RegisterStrip(mainStripID, mainStrip)
	mgr.RegisterStrip(previewStripID, previewStrip)
	mgr.Start()
	defer mgr.Stop()
	log.Printf("render loop started (%d FPS)", cfg.FPS)

	bus := mgr.EventBus()
	reg := registry.New()
	reg.Register("render_loop")
	runners := animation.NewRunners(mgr, bus, reg, cfg.FPS, log.Default())

	go logAnimationEvents(bus)

	zoneMaps := map[string]*zone.Map{
		mainStripID:    zm,
		previewStripID: previewZM,
	}
	router := api.NewRouter(mgr, zoneMaps, runners)

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("web API listening on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Printf("http server exited: %v", err)
		}
	}()

	waitForSignal()
	log.Printf("shutting down")
}

func logAnimationEvents(bus *eventbus.Bus) {
	for ev := range bus.Subscribe() {
		log.Printf("event: %s zone=%s", ev.Type, ev.Zone)
	}
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
