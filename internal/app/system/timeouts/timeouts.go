// Package timeouts provides centralized timeout values for handler and
// store operations, used with context.WithTimeout around database and
// provider calls.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and writes (flow session create/consume)
//   - Medium: multi-step operations (identity resolution, connect-and-ping)
//   - Long: background sweeps and other non-interactive work
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration { return ping }

// Short returns the timeout for simple single-document operations.
func Short() time.Duration { return short }

// Medium returns the timeout for multi-step operations.
func Medium() time.Duration { return medium }

// Long returns the timeout for background sweeps and bulk deletes.
func Long() time.Duration { return long }
