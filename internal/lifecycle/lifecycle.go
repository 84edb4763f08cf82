package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown flips the drain flag. main sets it true on SIGTERM/SIGINT
// so the health endpoint starts reporting shutting-down before the listener
// closes.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining. While true the
// health handler answers 503 and no new traffic should be routed here.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}
