package main

import (
	"context"
	"testing"

	"gpsfix/internal/config"
)

func TestOpenSession_NMEARequiresDevice(t *testing.T) {
	cfg := config.Config{Source: "nmea"}
	if _, err := openSession(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for nmea source without a device")
	}
}
