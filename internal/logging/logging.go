// Package logging provides the shared, narrow logging surface used by the
// core detection kernel for recovered-but-notable conditions (EPA iteration
// cap, GJK numerical regression, broad-phase contract violations that stop
// short of being fatal). The core never logs on a hot path that survives
// warm-up, and never panics from this package.
package logging

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log zerolog.Logger = zerolog.New(io.Discard)
)

// SetOutput redirects the package logger. Passing nil discards all output,
// which is the default so that importing this library is silent unless a
// caller opts in.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	log = zerolog.New(w).With().Timestamp().Logger()
}

// Logger returns the current shared logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &log
}
