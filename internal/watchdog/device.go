package watchdog

// Device is the capability set shared by all watchdog variants. The facade
// holds exactly one Device and never special-cases which variant it is; the
// no-op variant satisfies the same contract without ever reducing risk.
type Device interface {
	// Open acquires the underlying resource. Recognized failures (missing
	// device, permissions, device busy) come back as WatchdogError.
	Open() error

	// GetSupport reports the device's capability flags and identity. Results
	// are queried once and cached for the life of the handle.
	GetSupport() (*SupportInfo, error)

	// GetTimeout returns the timeout, in seconds, the device actually
	// enforces right now.
	GetTimeout() (int, error)

	// SetTimeout requests a new timeout in seconds. The device may clamp or
	// round the request: callers must re-query with GetTimeout rather than
	// assume the requested value took effect.
	SetTimeout(seconds int) error

	// Keepalive resets the device's internal countdown.
	Keepalive() error

	// Close disables the device if it supports disablement, then releases
	// the resource.
	Close() error

	// CanBeDisabled reports whether closing the device stops the countdown.
	CanBeDisabled() bool

	// Describe returns a human-readable identity for log messages.
	Describe() string

	// Running reports whether the device is currently armed and counting.
	Running() bool
}

// deviceIO is the single generic device-control primitive the Linux variant
// is built on. The real implementation issues syscalls; tests script it.
//
// Ioctl exchanges buf with the device: for read-style controls the kernel
// mutates buf in place (mutate true), for pure writes it only consumes it.
// An errno from any of these methods is returned as-is.
type deviceIO interface {
	Open(path string) (fd int, err error)
	Ioctl(fd int, op uint, buf []byte, mutate bool) error
	Write(fd int, data []byte) (n int, err error)
	Close(fd int) error
}
