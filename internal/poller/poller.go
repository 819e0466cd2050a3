// Package poller implements the bounded one-shot polling loop: read the
// session until a fix is acquired or the attempt budget runs out, then
// report whatever the final state is.
package poller

import (
	"fmt"
	"io"
	"os"

	"gpsfix/internal/gps"
)

// DefaultAttempts is the read budget when none is configured.
const DefaultAttempts = 9

// Config controls one polling run.
type Config struct {
	// Attempts is the read budget. Defaults to DefaultAttempts.
	Attempts int

	// Out receives the per-poll status lines, the final summary tuple and
	// the session dump. Defaults to stdout.
	Out io.Writer
}

// Result is the outcome of a polling run.
type Result struct {
	// Fix is the last state observed, acquired or not.
	Fix gps.Fix

	// Acquired reports whether the loop stopped early on a usable fix.
	Acquired bool

	// Cycles counts the read cycles performed.
	Cycles int
}

// Run polls the session until Fix.Acquired or the budget is exhausted.
//
// Each cycle: one blocking Read, print the current fix, stop if acquired,
// otherwise advance to the next buffered report. Session errors abort the
// run immediately and propagate; there is no retry or backoff. Exhausting
// the budget without a fix is not an error: the final state is reported
// either way.
func Run(s gps.Session, cfg Config) (Result, error) {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	var res Result
	for i := 0; i < attempts; i++ {
		if err := s.Read(); err != nil {
			return res, fmt.Errorf("poll %d: %w", i+1, err)
		}
		res.Cycles = i + 1
		res.Fix = s.Fix()
		fmt.Fprintln(out, res.Fix)

		if res.Fix.Acquired() {
			res.Acquired = true
			break
		}

		if err := s.Next(); err != nil {
			return res, fmt.Errorf("poll %d: %w", i+1, err)
		}
		res.Fix = s.Fix()
	}

	fmt.Fprintln(out, res.Fix.Summary())
	fmt.Fprintln(out, s.String())
	return res, nil
}
