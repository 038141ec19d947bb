package pathing

import "sync/atomic"

// verbose gates the per-request logs RequestPath and Tick would otherwise emit
// for every queued, replaced and delivered path.
var verbose atomic.Bool

// EnableDebugLogging turns per-request logging on or off. cmd/gridnav sets it
// from log_level at startup.
func EnableDebugLogging(enabled bool) {
	verbose.Store(enabled)
}

// IsDebugEnabled reports whether per-request logging is on. Checked before
// building slog attributes on the tick path.
func IsDebugEnabled() bool {
	return verbose.Load()
}
