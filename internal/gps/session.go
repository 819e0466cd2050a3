package gps

import (
	"fmt"
	"strings"
)

// Session is one live connection to a GPS data source holding the most
// recent Fix.
//
// Read performs one blocking interaction cycle with the source and updates
// the held fix; Next advances to the next buffered report. Both fail fast:
// connection loss, malformed data, and stream exhaustion surface as errors
// with no retry.
type Session interface {
	Read() error
	Next() error
	Fix() Fix
	String() string
	Close() error
}

// WatchFlags select the gpsd watch mode requested at session start.
type WatchFlags uint

const (
	// WatchEnable turns on streaming of reports.
	WatchEnable WatchFlags = 1 << iota
	// WatchJSON requests newline-delimited JSON reports.
	WatchJSON
	// WatchScaled requests scaled units: degrees, meters, m/s.
	WatchScaled
)

// command renders the ?WATCH request sent to gpsd on connect.
func (w WatchFlags) command() string {
	parts := []string{fmt.Sprintf("\"enable\":%t", w&WatchEnable != 0)}
	if w&WatchJSON != 0 {
		parts = append(parts, "\"json\":true")
	}
	if w&WatchScaled != 0 {
		parts = append(parts, "\"scaled\":true")
	}
	return "?WATCH={" + strings.Join(parts, ",") + "}\n"
}
