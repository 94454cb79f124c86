// Package watchdog arms a kernel watchdog device so a node whose control
// loop hangs is forcibly reset before it can cause split-brain in a
// high-availability cluster.
//
// # Safety Model
//
// The cluster tolerates a node being unresponsive for at most ttl. The
// control loop runs every loop_wait and pings the device each iteration.
// The facade only arms a device when the margin between the two budgets
// leaves room for the watchdog to fire:
//
//	margin = ttl - loop_wait        (time available for the device to fire)
//	margin >= loop_wait             (one missed cycle must not race the device)
//	requested = margin - safety_margin, at least loop_wait
//	loop_wait <= negotiated < ttl   (checked against the re-queried timeout)
//
// The negotiated timeout is always re-queried after a set request, because
// the kernel clamps and rounds: the value the device enforces is the only
// one that matters for the safety check.
//
// # Modes
//
// Three enforcement modes govern what happens when these bounds cannot be
// met. "off" never touches a device. "automatic" degrades with a logged
// warning and keeps the process running. "required" terminates the process:
// an operator who demanded fencing is better served by a node that refuses
// to start than by one that silently runs unprotected. Unrecognized mode
// strings resolve to "off" with a warning, never to an enforcing mode.
//
// # Device Variants
//
// Two variants implement the same Device capability set: the real Linux
// watchdog device (/dev/watchdog, driven by WDIOC ioctls and single-byte
// writes per linux/watchdog.h) and a no-op variant used when there is no
// device to manage. The facade's algorithm never special-cases which
// variant it holds.
//
// # Error Classes
//
// WatchdogError marks expected, recoverable device conditions; the facade
// branches on it during activation and swallows it (with a log line) in
// Keepalive and Disable. Raw errno values from unexpected control failures
// pass through unwrapped.
//
// # Concurrency
//
// The facade is single-threaded by design, driven synchronously by the
// owning control loop. The underlying kernel handle has no atomicity
// guarantees across operations, so the facade is the sole owner.
package watchdog
