package gps

// Package gps provides blocking, single-reader sessions against GPS data
// sources.
//
// Two sources are supported:
// - gpsd over TCP (?WATCH + newline-delimited JSON reports)
// - NMEA directly from a serial receiver (RMC for lat/lon/time, GGA for
//   altitude)
//
// A session holds the most recent Fix and mutates it in place as reports
// arrive; callers poll it with Read/Next and inspect Fix between calls.
