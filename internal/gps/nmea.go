package gps

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// Knots per m/s; gpsd's scaled reports use m/s, NMEA speeds are knots.
const knotsPerMeterPerSecond = 1.9438444924406

// NMEAConfig describes a serial NMEA receiver.
type NMEAConfig struct {
	Device string
	Baud   int

	// Verbose logs every applied sentence.
	Verbose bool
}

// NMEASession reads NMEA sentences straight from a serial receiver and
// presents them through the same Session surface as gpsd. RMC supplies
// lat/lon/speed/track/time, GGA supplies altitude and satellite count.
type NMEASession struct {
	device  string
	baud    int
	verbose bool

	scanner *bufio.Scanner
	closer  io.Closer

	fix       Fix
	sentences uint64
}

// OpenNMEA opens the serial device in raw mode and wraps it in a session.
func OpenNMEA(cfg NMEAConfig) (*NMEASession, error) {
	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		return nil, fmt.Errorf("nmea device is required")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	f, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("nmea open %s: %w", device, err)
	}
	s := newNMEASession(device, baud, f, f)
	s.verbose = cfg.Verbose
	return s, nil
}

func newNMEASession(device string, baud int, r io.Reader, c io.Closer) *NMEASession {
	sc := bufio.NewScanner(r)
	// NMEA sentences are typically < 82 chars, but allow some headroom.
	sc.Buffer(make([]byte, 0, 256), 4096)
	return &NMEASession{device: device, baud: baud, scanner: sc, closer: c, fix: NewFix()}
}

// Read blocks until one position sentence (RMC or GGA) has been consumed
// and applied. Other sentence types and line noise are skipped.
func (s *NMEASession) Read() error { return s.advance() }

// Next advances to the next buffered sentence; blocks like Read when the
// buffer is empty.
func (s *NMEASession) Next() error { return s.advance() }

func (s *NMEASession) Fix() Fix { return s.fix }

func (s *NMEASession) String() string {
	return fmt.Sprintf("nmea session device=%s baud=%d sentences=%d %s",
		s.device, s.baud, s.sentences, s.fix)
}

func (s *NMEASession) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *NMEASession) advance() error {
	for {
		if !s.scanner.Scan() {
			err := s.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			return fmt.Errorf("nmea read: %w", err)
		}
		line := strings.TrimSpace(s.scanner.Text())
		// Some receivers include non-NMEA chatter; filter quickly.
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}
		sent, err := nmea.Parse(line)
		if err != nil {
			// Partial sentences are common around power-up; skip noise.
			continue
		}
		if s.apply(sent) {
			if s.verbose {
				log.Printf("nmea <- %s", line)
			}
			s.sentences++
			return nil
		}
	}
}

// apply folds one parsed sentence into the fix. Returns false for sentence
// types that carry nothing we track.
func (s *NMEASession) apply(sent nmea.Sentence) bool {
	switch m := sent.(type) {
	case nmea.RMC:
		s.fix.Time = rmcTime(m.Date, m.Time)
		if m.Validity != nmea.ValidRMC {
			// Void fixes still carry a timestamp but no trusted position.
			return true
		}
		s.fix.LatDeg = m.Latitude
		s.fix.LonDeg = m.Longitude
		s.fix.SpeedMS = m.Speed / knotsPerMeterPerSecond
		s.fix.TrackDeg = m.Course
		if s.fix.Mode < 2 {
			s.fix.Mode = 2
		}
		return true
	case nmea.GGA:
		if m.FixQuality == nmea.Invalid {
			return true
		}
		s.fix.AltM = m.Altitude
		s.fix.Satellites = int(m.NumSatellites)
		s.fix.HDOP = m.HDOP
		s.fix.Mode = 3
		return true
	default:
		return false
	}
}

func rmcTime(d nmea.Date, t nmea.Time) time.Time {
	if !d.Valid || !t.Valid {
		return time.Time{}
	}
	return time.Date(2000+d.YY, time.Month(d.MM), d.DD,
		t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}
