package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gpsfix/internal/config"
	"gpsfix/internal/gps"
	"gpsfix/internal/poller"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config (built-in defaults when empty)")
	flag.Parse()

	if err := run(configPath); err != nil {
		log.Fatalf("gpsfix: %v", err)
	}
}

// run keeps session teardown on every exit path; log.Fatalf in main would
// skip the deferred Close.
func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	// Ctrl-C interrupts the dial step only; once connected the poll loop
	// is blocking and runs to completion or error.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session open: %w", err)
	}
	defer func() {
		_ = sess.Close()
	}()

	res, err := poller.Run(sess, poller.Config{Attempts: cfg.Attempts, Out: os.Stdout})
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if !res.Acquired {
		log.Printf("no fix acquired after %d polls", res.Cycles)
	}
	return nil
}

func openSession(ctx context.Context, cfg config.Config) (gps.Session, error) {
	switch cfg.Source {
	case "nmea":
		log.Printf("source=nmea device=%s baud=%d", cfg.NMEA.Device, cfg.NMEA.Baud)
		return gps.OpenNMEA(gps.NMEAConfig{Device: cfg.NMEA.Device, Baud: cfg.NMEA.Baud, Verbose: cfg.Verbose})
	default:
		watch := gps.WatchEnable | gps.WatchJSON
		if cfg.GPSD.Scaled == nil || *cfg.GPSD.Scaled {
			watch |= gps.WatchScaled
		}
		log.Printf("source=gpsd host=%s port=%s", cfg.GPSD.Host, cfg.GPSD.Port)
		return gps.DialGPSD(ctx, gps.GPSDConfig{
			Host:        cfg.GPSD.Host,
			Port:        cfg.GPSD.Port,
			Watch:       watch,
			DialTimeout: cfg.GPSD.DialTimeout,
			Verbose:     cfg.Verbose,
		})
	}
}
