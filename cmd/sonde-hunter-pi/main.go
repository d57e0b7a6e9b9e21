package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DB8LE/sonde-hunter-pi/internal/config"
	"github.com/DB8LE/sonde-hunter-pi/internal/fusion"
	"github.com/DB8LE/sonde-hunter-pi/internal/gps"
	"github.com/DB8LE/sonde-hunter-pi/internal/render"
	"github.com/DB8LE/sonde-hunter-pi/internal/telemetry"
	"github.com/DB8LE/sonde-hunter-pi/internal/touch"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./sonde-hunter.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("sonde-hunter-pi starting")

	gpsSvc := gps.New(gps.Config{Addr: cfg.GPSD.Addr, DialTimeout: cfg.GPSD.DialTimeout})
	if err := gpsSvc.Start(ctx); err != nil {
		log.Fatalf("gps start failed: %v", err)
	}
	defer gpsSvc.Close()

	// Without a position source the whole display is pointless;
	// refuse to come up if gpsd never answers.
	if err := waitForGPS(ctx, gpsSvc, cfg.Fusion.StartupWait); err != nil {
		log.Fatalf("%v", err)
	}

	telSvc := telemetry.New(telemetry.Config{Listen: cfg.AutoRX.Listen})
	if err := telSvc.Start(ctx); err != nil {
		log.Fatalf("telemetry start failed: %v", err)
	}
	defer telSvc.Close()

	queue := touch.NewQueue()
	if cfg.Touch.Driver == "xpt2046" {
		sampler := touch.NewSampler(touch.Config{
			SPIDevice: cfg.Touch.SPIDevice,
			CSPin:     cfg.Touch.CSPin,
			IRQPin:    cfg.Touch.IRQPin,
			Cal: touch.Calibration{
				MinX: cfg.Touch.MinX, MaxX: cfg.Touch.MaxX,
				MinY: cfg.Touch.MinY, MaxY: cfg.Touch.MaxY,
			},
			Width:  render.Width,
			Height: render.Height,
		}, queue)
		if err := sampler.Start(ctx); err != nil {
			log.Fatalf("touch start failed: %v", err)
		}
		defer sampler.Close()
	}

	var renderer fusion.Renderer
	switch cfg.Display.Driver {
	case "ili9341":
		lcd, err := render.OpenILI9341(render.Config{
			SPIDevice: cfg.Display.SPIDevice,
			DCPin:     cfg.Display.DCPin,
			ResetPin:  cfg.Display.ResetPin,
			Flip:      cfg.Display.Flip,
		})
		if err != nil {
			log.Fatalf("display init failed: %v", err)
		}
		defer lcd.Close()
		renderer = lcd
	default:
		renderer = render.LogRenderer{}
	}

	loop := fusion.NewLoop(cfg.Fusion.Tick, gpsSvc, telSvc, queue, renderer)
	if err := loop.Run(ctx); err != nil {
		log.Printf("fusion loop stopped: %v", err)
	}

	log.Printf("sonde-hunter-pi stopping")
}

// waitForGPS blocks until the GPS stream has produced data or the
// startup budget runs out.
func waitForGPS(ctx context.Context, s *gps.Service, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if s.Ready() {
			return nil
		}
		if msg := s.LastError(); msg != "" {
			return errStartup(msg)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return errStartup("no data from gpsd within " + wait.String())
}

type errStartup string

func (e errStartup) Error() string { return "gps startup failed: " + string(e) }
