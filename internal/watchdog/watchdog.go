package watchdog

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ha-tools/deadman/internal/logging"
)

// Mode selects how strictly the watchdog is enforced.
type Mode string

const (
	// ModeOff never touches a device.
	ModeOff Mode = "off"
	// ModeAutomatic arms a watchdog when one is usable and degrades with a
	// warning when it is not.
	ModeAutomatic Mode = "automatic"
	// ModeRequired terminates the process whenever a watchdog cannot
	// guarantee safe termination.
	ModeRequired Mode = "required"
)

// ParseMode resolves a configured mode string. "auto" is accepted as an
// alias for "automatic". The second return value is false for unrecognized
// strings, which resolve to ModeOff: unrecognized configuration must never
// silently escalate to enforcing behavior.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "off", "":
		return ModeOff, true
	case "automatic", "auto":
		return ModeAutomatic, true
	case "required":
		return ModeRequired, true
	}
	return ModeOff, false
}

// Config carries the timing parameters and watchdog settings for one
// activation cycle. Immutable once handed to New.
type Config struct {
	// TTL is the maximum time the cluster tolerates this node being
	// unresponsive before treating it as dead.
	TTL time.Duration
	// LoopWait is the interval between control-loop iterations, and thus
	// between keepalive opportunities.
	LoopWait time.Duration
	// Mode is the configured enforcement mode string (see ParseMode).
	Mode string
	// Device is the watchdog device path, e.g. /dev/watchdog.
	Device string
	// SafetyMargin is subtracted from TTL - LoopWait when requesting a
	// device timeout, leaving headroom for keepalive scheduling jitter.
	SafetyMargin time.Duration
}

// RequestedTimeout returns the device timeout, in whole seconds, that would
// be requested for the given timings, and whether the timing-validity
// invariant holds. The invariant requires the margin (ttl - loopWait) to be
// at least one full loop period, otherwise a single missed cycle could race
// the watchdog itself.
func RequestedTimeout(ttl, loopWait, safetyMargin time.Duration) (seconds int, ok bool) {
	margin := ttl - loopWait
	if margin < loopWait {
		return 0, false
	}
	seconds = int((margin - safetyMargin) / time.Second)
	if floor := int(loopWait / time.Second); seconds < floor {
		seconds = floor
	}
	return seconds, true
}

type state int

const (
	stateUnconfigured state = iota
	stateInactive
	stateActive
	stateDisabled
)

// fatalExit is the single process-termination boundary for this package.
// Every fatal path enumerated by the activation algorithm funnels through
// it; the device layer never exits. Tests substitute a non-terminating stub.
var fatalExit = func(msg string, fields ...zap.Field) {
	logging.Fatal(msg, fields...)
}

// platformDevice selects the real device variant for the host OS; nil means
// the host has no real watchdog support.
var platformDevice = defaultPlatformDevice

// Watchdog decides whether and how to arm a watchdog device so that a hung
// control loop gets this node reset before it can cause split-brain.
//
// It is driven synchronously by the owning control loop: Activate once,
// Keepalive once per iteration, Disable on shutdown. It owns the single
// device handle and must not be shared across goroutines without external
// synchronization.
type Watchdog struct {
	mode         Mode
	ttl          time.Duration
	loopWait     time.Duration
	safetyMargin time.Duration
	impl         Device
	state        state
	log          *zap.Logger
}

// New builds a Watchdog from configuration, resolving the mode and selecting
// the device variant for this platform. If the mode is "required" and the
// platform has no real watchdog support, New terminates the process: a node
// that demands fencing must not come up without it.
func New(cfg Config) *Watchdog {
	w := &Watchdog{
		ttl:          cfg.TTL,
		loopWait:     cfg.LoopWait,
		safetyMargin: cfg.SafetyMargin,
		state:        stateUnconfigured,
		log:          logging.GetLogger(),
	}

	mode, recognized := ParseMode(cfg.Mode)
	if !recognized {
		w.log.Warn("unrecognized watchdog mode, falling back to off",
			zap.String("mode", cfg.Mode))
	}
	w.mode = mode

	w.impl = newNullDevice()
	if mode != ModeOff {
		if dev := platformDevice(cfg); dev != nil {
			w.impl = dev
		} else if mode == ModeRequired {
			fatalExit("watchdog is required but not supported on this platform",
				zap.String("os", runtime.GOOS))
		} else {
			w.log.Warn("no watchdog support on this platform, continuing without",
				zap.String("os", runtime.GOOS))
		}
	}

	w.state = stateInactive
	return w
}

// Activate runs the safety-margin algorithm and arms the device when the
// configured timings allow a watchdog to guarantee termination within the
// failure window. Under required mode every safety violation terminates the
// process; under automatic mode the same violations degrade with a warning.
func (w *Watchdog) Activate() {
	if w.state != stateInactive || w.mode == ModeOff {
		return
	}

	requested, ok := RequestedTimeout(w.ttl, w.loopWait, w.safetyMargin)
	if !ok {
		if w.mode == ModeRequired {
			fatalExit("watchdog cannot guarantee safe termination: ttl must be at least twice loop_wait",
				zap.Duration("ttl", w.ttl), zap.Duration("loop_wait", w.loopWait))
			return
		}
		w.log.Warn("watchdog not armed: ttl leaves less than one loop_wait of margin",
			zap.Duration("ttl", w.ttl), zap.Duration("loop_wait", w.loopWait))
		return
	}

	if err := w.impl.Open(); err != nil {
		w.failActivation(err, "could not open watchdog device")
		return
	}

	info, err := w.impl.GetSupport()
	if err != nil {
		w.failActivation(err, "could not query watchdog capabilities")
		return
	}

	if err := w.impl.SetTimeout(requested); err != nil {
		w.failActivation(err, "could not set watchdog timeout")
		return
	}

	// The device may have clamped or rounded the request; only the
	// re-queried value counts for the safety check.
	negotiated, err := w.impl.GetTimeout()
	if err != nil {
		w.failActivation(err, "could not read back watchdog timeout")
		return
	}

	loopSec := int(w.loopWait / time.Second)
	ttlSec := int(w.ttl / time.Second)
	if negotiated < loopSec || negotiated >= ttlSec {
		if w.mode == ModeRequired {
			if w.impl.CanBeDisabled() {
				// An armed but unsafe watchdog is worse than none.
				if cerr := w.impl.Close(); cerr != nil {
					w.log.Error("could not disable unsafe watchdog", zap.Error(cerr))
				}
			}
			fatalExit("watchdog timeout cannot guarantee safe termination",
				zap.String("device", w.impl.Describe()),
				zap.Int("negotiated_s", negotiated),
				zap.Int("requested_s", requested),
				zap.Duration("ttl", w.ttl), zap.Duration("loop_wait", w.loopWait))
			return
		}
		w.log.Warn("watchdog timeout does not guarantee safe termination, continuing anyway",
			zap.String("device", w.impl.Describe()),
			zap.Int("negotiated_s", negotiated),
			zap.Int("requested_s", requested))
	}

	if !w.impl.Running() {
		if w.mode == ModeRequired {
			fatalExit("watchdog activation failed: device is not running",
				zap.String("device", w.impl.Describe()))
			return
		}
		w.log.Warn("watchdog activation failed: device is not running",
			zap.String("device", w.impl.Describe()))
		return
	}

	w.state = stateActive
	w.log.Info("watchdog active",
		zap.String("device", w.impl.Describe()),
		zap.Int("timeout_s", negotiated),
		zap.Strings("capabilities", info.Options.Names()))
}

// failActivation handles an expected device error during activation: fatal
// under required mode, warn-and-degrade under automatic. An error outside
// the WatchdogError class is unexpected by definition and is escalated to a
// fatal exit regardless of mode, so it stays visible instead of being
// masked as a routine device condition.
func (w *Watchdog) failActivation(err error, msg string) {
	if !IsWatchdogError(err) {
		fatalExit("unexpected watchdog device failure",
			zap.String("device", w.impl.Describe()), zap.Error(err))
		return
	}
	if w.mode == ModeRequired {
		fatalExit(msg+"; watchdog is required",
			zap.String("device", w.impl.Describe()), zap.Error(err))
		return
	}
	w.log.Warn(msg+", continuing without watchdog",
		zap.String("device", w.impl.Describe()), zap.Error(err))
	if cerr := w.impl.Close(); cerr != nil {
		w.log.Debug("could not close watchdog device after failed activation", zap.Error(cerr))
	}
}

// Keepalive sends the periodic ping that resets the device countdown. Valid
// only while active. A device error is logged and swallowed: a single missed
// ping must not crash the supervised process, and the watchdog itself fires
// if pings keep failing.
func (w *Watchdog) Keepalive() {
	if w.state != stateActive {
		return
	}
	if err := w.impl.Keepalive(); err != nil {
		w.log.Warn("watchdog keepalive failed",
			zap.String("device", w.impl.Describe()), zap.Error(err))
	}
}

// Disable closes the device if open and moves to the terminal Disabled
// state. Valid from any state and safe to call multiple times; errors are
// logged and swallowed for the same reason as in Keepalive.
func (w *Watchdog) Disable() {
	if w.state == stateDisabled {
		return
	}
	if err := w.impl.Close(); err != nil {
		w.log.Warn("error while disabling watchdog",
			zap.String("device", w.impl.Describe()), zap.Error(err))
	}
	w.state = stateDisabled
}

// IsRunning reports whether the watchdog is armed and counting.
func (w *Watchdog) IsRunning() bool {
	return w.state == stateActive && w.impl.Running()
}

// Mode returns the resolved enforcement mode.
func (w *Watchdog) Mode() Mode {
	return w.mode
}

// Describe returns a human-readable identity of the owned device variant.
func (w *Watchdog) Describe() string {
	return w.impl.Describe()
}
