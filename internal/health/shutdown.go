package health

import "sync/atomic"

// readyGate is flipped off once graceful shutdown begins so load balancers
// stop routing new traffic while in-flight requests drain.
var readyGate atomic.Bool

func init() {
	readyGate.Store(true)
}

// SetReady toggles the process-wide readiness gate.
func SetReady(v bool) {
	readyGate.Store(v)
}

// Accepting reports whether the process is accepting new traffic.
func Accepting() bool {
	return readyGate.Load()
}
