// Package runner is the ticker-driven control loop that keeps the watchdog
// fed. It owns the activate/keepalive/disable lifecycle ordering: activation
// happens exactly once before the first tick, one keepalive is sent per loop
// iteration, and the watchdog is disabled on the way out regardless of why
// the loop stopped.
package runner
