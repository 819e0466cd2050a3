package gps

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"strings"
	"time"
)

const (
	DefaultGPSDHost = "localhost"
	DefaultGPSDPort = "2947"
)

// GPSDConfig describes how to reach gpsd.
type GPSDConfig struct {
	Host string
	Port string

	// Watch is sent as a ?WATCH command right after connecting.
	Watch WatchFlags

	// DialTimeout bounds the TCP connect only; reads block without limit.
	DialTimeout time.Duration

	// Verbose logs every consumed report line.
	Verbose bool
}

// GPSDSession is a synchronous gpsd client. It owns the connection for its
// lifetime and is not safe for concurrent use; there is a single reader.
type GPSDSession struct {
	addr    string
	scanner *bufio.Scanner
	closer  io.Closer
	verbose bool

	fix     Fix
	reports uint64
}

// DialGPSD connects to gpsd over TCP and enables the requested watch mode.
func DialGPSD(ctx context.Context, cfg GPSDConfig) (*GPSDSession, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultGPSDHost
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = DefaultGPSDPort
	}
	addr := net.JoinHostPort(host, port)

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := &net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("gpsd dial %s: %w", addr, err)
	}

	if _, err := conn.Write([]byte(cfg.Watch.command())); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("gpsd watch: %w", err)
	}
	s := newGPSDSession(addr, conn, conn)
	s.verbose = cfg.Verbose
	return s, nil
}

func newGPSDSession(addr string, r io.Reader, c io.Closer) *GPSDSession {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 256*1024)
	return &GPSDSession{addr: addr, scanner: sc, closer: c, fix: NewFix()}
}

// Read blocks until one report line has been consumed from the service and
// applied to the held fix.
func (s *GPSDSession) Read() error { return s.advance() }

// Next processes the next buffered report. The buffering lives in the line
// scanner, so this blocks like Read when the buffer is empty.
func (s *GPSDSession) Next() error { return s.advance() }

func (s *GPSDSession) Fix() Fix { return s.fix }

func (s *GPSDSession) String() string {
	return fmt.Sprintf("gpsd session addr=%s reports=%d %s", s.addr, s.reports, s.fix)
}

func (s *GPSDSession) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *GPSDSession) advance() error {
	for {
		if !s.scanner.Scan() {
			err := s.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			return fmt.Errorf("gpsd read: %w", err)
		}
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if s.verbose {
			log.Printf("gpsd <- %s", line)
		}
		s.reports++
		return s.applyLine(line)
	}
}

type gpsdMsgBase struct {
	Class string `json:"class"`
}

type gpsdTPV struct {
	Mode *int   `json:"mode"`
	Time string `json:"time"`

	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`

	Alt    *float64 `json:"alt"`
	AltMSL *float64 `json:"altMSL"`

	// Scaled units: m/s for speed/climb, degrees for track.
	Speed *float64 `json:"speed"`
	Track *float64 `json:"track"`
	Climb *float64 `json:"climb"`

	Epx *float64 `json:"epx"`
	Epy *float64 `json:"epy"`
	Eph *float64 `json:"eph"`
	Epv *float64 `json:"epv"`
}

type gpsdSat struct {
	Used bool `json:"used"`
}

type gpsdSKY struct {
	HDOP       *float64  `json:"hdop"`
	Satellites []gpsdSat `json:"satellites"`
}

func (s *GPSDSession) applyLine(line string) error {
	var base gpsdMsgBase
	if err := json.Unmarshal([]byte(line), &base); err != nil {
		return fmt.Errorf("gpsd json parse failed: %v", err)
	}

	switch strings.ToUpper(strings.TrimSpace(base.Class)) {
	case "TPV":
		var tpv gpsdTPV
		if err := json.Unmarshal([]byte(line), &tpv); err != nil {
			return fmt.Errorf("gpsd tpv parse failed: %v", err)
		}
		s.applyTPV(tpv)
		return nil
	case "SKY":
		var sky gpsdSKY
		if err := json.Unmarshal([]byte(line), &sky); err != nil {
			return fmt.Errorf("gpsd sky parse failed: %v", err)
		}
		s.applySKY(sky)
		return nil
	default:
		// VERSION/DEVICES/WATCH and friends carry no position data.
		return nil
	}
}

func (s *GPSDSession) applyTPV(tpv gpsdTPV) {
	if tpv.Mode != nil {
		s.fix.Mode = *tpv.Mode
	}

	if t := strings.TrimSpace(tpv.Time); t != "" {
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			s.fix.Time = ts.UTC()
		}
	}

	if tpv.Lat != nil {
		s.fix.LatDeg = *tpv.Lat
	}
	if tpv.Lon != nil {
		s.fix.LonDeg = *tpv.Lon
	}

	// Older gpsd reports only alt; 3.20+ adds altMSL alongside it.
	altM := tpv.Alt
	if altM == nil {
		altM = tpv.AltMSL
	}
	if altM != nil {
		s.fix.AltM = *altM
	}

	if tpv.Speed != nil {
		s.fix.SpeedMS = *tpv.Speed
	}
	if tpv.Track != nil {
		s.fix.TrackDeg = *tpv.Track
	}
	if tpv.Climb != nil {
		s.fix.ClimbMS = *tpv.Climb
	}

	if tpv.Eph != nil {
		s.fix.EphM = *tpv.Eph
	} else if tpv.Epx != nil && tpv.Epy != nil {
		// Some gpsd versions send only the per-axis estimates.
		s.fix.EphM = math.Sqrt((*tpv.Epx)*(*tpv.Epx) + (*tpv.Epy)*(*tpv.Epy))
	}
	if tpv.Epv != nil {
		s.fix.EpvM = *tpv.Epv
	}
}

func (s *GPSDSession) applySKY(sky gpsdSKY) {
	if sky.HDOP != nil {
		s.fix.HDOP = *sky.HDOP
	}
	if len(sky.Satellites) > 0 {
		used := 0
		for _, sat := range sky.Satellites {
			if sat.Used {
				used++
			}
		}
		s.fix.Satellites = used
	}
}
