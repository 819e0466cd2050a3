package gps

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"
)

func newTestNMEASession(stream string) *NMEASession {
	return newNMEASession("/dev/ttyACM0", 9600, strings.NewReader(stream), nil)
}

func TestNMEASession_RMCUpdatesPosition(t *testing.T) {
	// 48°51.0000'N 2°21.0000'E, 10 kt over ground, course 090.
	s := newTestNMEASession("$GPRMC,110145.000,A,4851.0000,N,00221.0000,E,10.0,90.0,150324,,,A*6E\n")
	if err := s.Read(); err != nil {
		t.Fatalf("read err: %v", err)
	}

	fix := s.Fix()
	if math.Abs(fix.LatDeg-48.85) > 1e-6 || math.Abs(fix.LonDeg-2.35) > 1e-6 {
		t.Fatalf("lat=%v lon=%v", fix.LatDeg, fix.LonDeg)
	}
	// 10 kt ~= 5.14 m/s
	if fix.SpeedMS < 5.1 || fix.SpeedMS > 5.2 {
		t.Fatalf("speed=%v", fix.SpeedMS)
	}
	if math.Abs(fix.TrackDeg-90.0) > 1e-9 {
		t.Fatalf("track=%v", fix.TrackDeg)
	}
	want := time.Date(2024, 3, 15, 11, 1, 45, 0, time.UTC)
	if !fix.Time.Equal(want) {
		t.Fatalf("time=%v want %v", fix.Time, want)
	}
	if fix.Mode < 2 {
		t.Fatalf("mode=%d want >= 2", fix.Mode)
	}
	// Altitude has not been seen yet, so the fix is still unacquired.
	if fix.Acquired() {
		t.Fatalf("RMC alone must not acquire")
	}
}

func TestNMEASession_GGAProvidesAltitude(t *testing.T) {
	s := newTestNMEASession(strings.Join([]string{
		"$GPRMC,110145.000,A,4851.0000,N,00221.0000,E,10.0,90.0,150324,,,A*6E",
		"$GPGGA,110146.000,4851.0000,N,00221.0000,E,1,8,1.03,35.0,M,45.5,M,,*6E",
	}, "\n") + "\n")

	if err := s.Read(); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("next err: %v", err)
	}

	fix := s.Fix()
	if math.Abs(fix.AltM-35.0) > 1e-9 {
		t.Fatalf("alt=%v", fix.AltM)
	}
	if fix.Satellites != 8 {
		t.Fatalf("satellites=%d", fix.Satellites)
	}
	if math.Abs(fix.HDOP-1.03) > 1e-9 {
		t.Fatalf("hdop=%v", fix.HDOP)
	}
	if fix.Mode != 3 {
		t.Fatalf("mode=%d", fix.Mode)
	}
	if !fix.Acquired() {
		t.Fatalf("expected acquired after RMC+GGA")
	}
}

func TestNMEASession_VoidRMCKeepsPositionUnset(t *testing.T) {
	s := newTestNMEASession("$GPRMC,110144.000,V,4851.0000,N,00221.0000,E,0.0,0.0,150324,,,N*7F\n")
	if err := s.Read(); err != nil {
		t.Fatalf("read err: %v", err)
	}
	fix := s.Fix()
	if fix.LatDeg != 0 || fix.LonDeg != 0 {
		t.Fatalf("void fix must not set position, lat=%v lon=%v", fix.LatDeg, fix.LonDeg)
	}
	if fix.Time.IsZero() {
		t.Fatalf("void fix still carries a timestamp")
	}
}

func TestNMEASession_InvalidGGAKeepsAltitudeUnset(t *testing.T) {
	s := newTestNMEASession("$GPGGA,110143.000,4851.0000,N,00221.0000,E,0,0,99.9,0.0,M,0.0,M,,*6B\n")
	if err := s.Read(); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if !math.IsNaN(s.Fix().AltM) {
		t.Fatalf("invalid GGA must not set altitude, alt=%v", s.Fix().AltM)
	}
}

func TestNMEASession_SkipsNoiseAndOtherSentences(t *testing.T) {
	s := newTestNMEASession(strings.Join([]string{
		"garbage line",
		"$GPRMC,truncated",
		"$GPGSV,1,1,04,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*7A",
		"$GPRMC,110145.000,A,4851.0000,N,00221.0000,E,10.0,90.0,150324,,,A*6E",
	}, "\n") + "\n")

	if err := s.Read(); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if s.Fix().LatDeg == 0 {
		t.Fatalf("expected read to block until a position sentence applied")
	}
	if s.sentences != 1 {
		t.Fatalf("sentences=%d want 1", s.sentences)
	}
}

func TestNMEASession_ReadAtEOF(t *testing.T) {
	s := newTestNMEASession("")
	err := s.Read()
	if err == nil {
		t.Fatalf("expected error at end of stream")
	}
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err=%v want io.EOF", err)
	}
}

func TestOpenNMEA_RequiresDevice(t *testing.T) {
	if _, err := OpenNMEA(NMEAConfig{}); err == nil {
		t.Fatalf("expected error for empty device")
	}
}
