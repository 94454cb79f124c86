package watchdog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ha-tools/deadman/internal/logging"
)

// fakeDevice records the facade's device calls. By default it behaves like a
// healthy MAGICCLOSE-capable driver that clamps every timeout request down
// by one second.
type fakeDevice struct {
	openErr    error
	supportErr error
	setErr     error
	getErr     error
	keepErr    error
	closeErr   error

	canDisable    bool
	negotiated    int  // explicit GetTimeout answer; 0 means requested-1
	notRunning    bool // force Running() false even while open
	lastRequested int

	opened         bool
	openCalls      int
	setCalls       int
	keepaliveCalls int
	closeCalls     int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{canDisable: true}
}

func (d *fakeDevice) Open() error {
	d.openCalls++
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	return nil
}

func (d *fakeDevice) GetSupport() (*SupportInfo, error) {
	if d.supportErr != nil {
		return nil, d.supportErr
	}
	options := FlagSetTimeout | FlagKeepAlivePing
	if d.canDisable {
		options |= FlagMagicClose
	}
	return &SupportInfo{Options: options, Identity: "Fake Watchdog"}, nil
}

func (d *fakeDevice) GetTimeout() (int, error) {
	if d.getErr != nil {
		return 0, d.getErr
	}
	if d.negotiated != 0 {
		return d.negotiated, nil
	}
	return d.lastRequested - 1, nil
}

func (d *fakeDevice) SetTimeout(seconds int) error {
	d.setCalls++
	if d.setErr != nil {
		return d.setErr
	}
	d.lastRequested = seconds
	return nil
}

func (d *fakeDevice) Keepalive() error {
	if d.keepErr != nil {
		return d.keepErr
	}
	d.keepaliveCalls++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closeCalls++
	if d.closeErr != nil {
		return d.closeErr
	}
	d.opened = false
	return nil
}

func (d *fakeDevice) CanBeDisabled() bool { return d.canDisable }
func (d *fakeDevice) Describe() string    { return "fake watchdog" }
func (d *fakeDevice) Running() bool       { return d.opened && !d.notRunning }

type fatalPanic struct{ msg string }

// stubEnv reroutes the package's logging, termination boundary, and platform
// dispatch for one test. The termination stub panics with a sentinel so the
// activation flow stops where a real fatal exit would.
func stubEnv(t *testing.T, dev Device) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	t.Cleanup(func() { logging.SetLogger(zap.NewNop()) })

	origFatal := fatalExit
	fatalExit = func(msg string, fields ...zap.Field) {
		panic(fatalPanic{msg: msg})
	}
	t.Cleanup(func() { fatalExit = origFatal })

	origPlatform := platformDevice
	platformDevice = func(cfg Config) Device { return dev }
	t.Cleanup(func() { platformDevice = origPlatform })

	return logs
}

// catchFatal runs fn and reports whether it hit the termination boundary.
func catchFatal(fn func()) (msg string, exited bool) {
	defer func() {
		if r := recover(); r != nil {
			fp, ok := r.(fatalPanic)
			if !ok {
				panic(r)
			}
			msg, exited = fp.msg, true
		}
	}()
	fn()
	return "", false
}

func testConfig(ttl, loopWait int, mode string) Config {
	return Config{
		TTL:          time.Duration(ttl) * time.Second,
		LoopWait:     time.Duration(loopWait) * time.Second,
		Mode:         mode,
		Device:       "/dev/watchdog",
		SafetyMargin: 5 * time.Second,
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input      string
		want       Mode
		recognized bool
	}{
		{input: "off", want: ModeOff, recognized: true},
		{input: "", want: ModeOff, recognized: true},
		{input: "automatic", want: ModeAutomatic, recognized: true},
		{input: "auto", want: ModeAutomatic, recognized: true},
		{input: "required", want: ModeRequired, recognized: true},
		{input: "bad", want: ModeOff, recognized: false},
		{input: "REQUIRED", want: ModeOff, recognized: false},
		{input: "on", want: ModeOff, recognized: false},
	}

	for _, tt := range tests {
		t.Run("mode "+tt.input, func(t *testing.T) {
			mode, recognized := ParseMode(tt.input)
			assert.Equal(t, tt.want, mode)
			assert.Equal(t, tt.recognized, recognized)
		})
	}
}

func TestRequestedTimeout(t *testing.T) {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }

	tests := []struct {
		name          string
		ttl, loopWait int
		margin        int
		want          int
		ok            bool
	}{
		{name: "typical timings", ttl: 30, loopWait: 10, margin: 5, want: 15, ok: true},
		{name: "margin exactly one loop", ttl: 30, loopWait: 15, margin: 5, want: 15, ok: true},
		{name: "requested never below loop_wait", ttl: 21, loopWait: 10, margin: 5, want: 10, ok: true},
		{name: "margin below one loop", ttl: 30, loopWait: 20, margin: 5, ok: false},
		{name: "ttl below loop_wait", ttl: 10, loopWait: 30, margin: 5, ok: false},
		{name: "no sub-margin configured", ttl: 30, loopWait: 10, margin: 0, want: 20, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RequestedTimeout(sec(tt.ttl), sec(tt.loopWait), sec(tt.margin))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewWarnsOnceOnUnrecognizedMode(t *testing.T) {
	logs := stubEnv(t, newFakeDevice())

	wd := New(testConfig(30, 10, "bad"))

	assert.Equal(t, ModeOff, wd.Mode())
	warnings := logs.FilterMessageSnippet("unrecognized watchdog mode").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
}

func TestActivateOffModeTouchesNothing(t *testing.T) {
	dev := newFakeDevice()
	stubEnv(t, dev)

	wd := New(testConfig(30, 10, "off"))
	wd.Activate()

	assert.Zero(t, dev.openCalls)
	assert.False(t, wd.IsRunning())
}

func TestActivateInvalidTimingsAutomatic(t *testing.T) {
	dev := newFakeDevice()
	logs := stubEnv(t, dev)

	// margin = 10 < loop_wait = 20: one missed cycle could race the device
	wd := New(testConfig(30, 20, "automatic"))
	wd.Activate()

	assert.Zero(t, dev.openCalls, "no device may be opened on invalid timings")
	assert.False(t, wd.IsRunning())
	assert.Len(t, logs.FilterMessageSnippet("less than one loop_wait").All(), 1)
}

func TestActivateInvalidTimingsRequired(t *testing.T) {
	dev := newFakeDevice()
	stubEnv(t, dev)

	wd := New(testConfig(30, 20, "required"))
	msg, exited := catchFatal(wd.Activate)

	require.True(t, exited)
	assert.Contains(t, msg, "cannot guarantee safe termination")
	assert.Zero(t, dev.openCalls)
}

func TestActivateBasicOperation(t *testing.T) {
	dev := newFakeDevice()
	stubEnv(t, dev)

	wd := New(testConfig(30, 10, "required"))
	_, exited := catchFatal(wd.Activate)

	require.False(t, exited)
	assert.Equal(t, 1, dev.openCalls)
	// margin 20 minus the 5s safety sub-margin
	assert.Equal(t, 15, dev.lastRequested)
	assert.True(t, wd.IsRunning())

	wd.Keepalive()
	assert.Equal(t, 1, dev.keepaliveCalls, "exactly one ping per call")

	wd.Disable()
	assert.Equal(t, 1, dev.closeCalls)
	assert.False(t, wd.IsRunning())

	// Disable is safe to call multiple times
	wd.Disable()
	assert.Equal(t, 1, dev.closeCalls)
}

func TestKeepaliveOutsideActiveState(t *testing.T) {
	dev := newFakeDevice()
	stubEnv(t, dev)

	wd := New(testConfig(30, 10, "automatic"))
	wd.Keepalive()
	assert.Zero(t, dev.keepaliveCalls)

	wd.Activate()
	wd.Disable()
	wd.Keepalive()
	assert.Zero(t, dev.keepaliveCalls)
}

func TestActivateUnsafeNegotiationRequired(t *testing.T) {
	dev := newFakeDevice()
	dev.negotiated = 9 // below loop_wait of 10
	stubEnv(t, dev)

	wd := New(testConfig(30, 10, "required"))
	msg, exited := catchFatal(wd.Activate)

	require.True(t, exited)
	assert.Contains(t, msg, "safe termination")
	// An armed but unsafe watchdog is disarmed before the process ends
	assert.Equal(t, 1, dev.closeCalls)
}

func TestActivateUnsafeNegotiationRequiredHardware(t *testing.T) {
	dev := newFakeDevice()
	dev.negotiated = 9
	dev.canDisable = false
	stubEnv(t, dev)

	wd := New(testConfig(30, 10, "required"))
	_, exited := catchFatal(wd.Activate)

	require.True(t, exited)
	assert.Zero(t, dev.closeCalls, "hardware that cannot be disabled is left alone")
}

func TestActivateUnsafeNegotiationAutomatic(t *testing.T) {
	dev := newFakeDevice()
	dev.negotiated = 40 // at or above ttl: node could act dead while alive
	logs := stubEnv(t, dev)

	wd := New(testConfig(30, 10, "automatic"))
	wd.Activate()

	assert.True(t, wd.IsRunning(), "automatic mode continues best-effort")
	assert.Len(t, logs.FilterMessageSnippet("does not guarantee safe termination").All(), 1)
}

func TestActivateDeviceNotRunning(t *testing.T) {
	t.Run("required terminates", func(t *testing.T) {
		dev := newFakeDevice()
		dev.notRunning = true
		stubEnv(t, dev)

		wd := New(testConfig(30, 10, "required"))
		msg, exited := catchFatal(wd.Activate)

		require.True(t, exited)
		assert.Contains(t, msg, "not running")
	})

	t.Run("automatic stays inactive", func(t *testing.T) {
		dev := newFakeDevice()
		dev.notRunning = true
		stubEnv(t, dev)

		wd := New(testConfig(30, 10, "automatic"))
		wd.Activate()

		assert.False(t, wd.IsRunning())
	})
}

func TestActivateOpenFailure(t *testing.T) {
	t.Run("automatic degrades", func(t *testing.T) {
		dev := newFakeDevice()
		dev.openErr = newError("cannot open watchdog device /dev/watchdog")
		logs := stubEnv(t, dev)

		wd := New(testConfig(30, 10, "automatic"))
		wd.Activate()

		assert.False(t, wd.IsRunning())
		assert.Len(t, logs.FilterMessageSnippet("could not open watchdog device").All(), 1)
	})

	t.Run("required terminates", func(t *testing.T) {
		dev := newFakeDevice()
		dev.openErr = newError("cannot open watchdog device /dev/watchdog")
		stubEnv(t, dev)

		wd := New(testConfig(30, 10, "required"))
		_, exited := catchFatal(wd.Activate)

		require.True(t, exited)
	})
}

func TestActivateUnexpectedErrorEscalates(t *testing.T) {
	dev := newFakeDevice()
	dev.supportErr = errors.New("input/output error")
	stubEnv(t, dev)

	// Even automatic mode must not mask a genuinely unanticipated failure
	wd := New(testConfig(30, 10, "automatic"))
	msg, exited := catchFatal(wd.Activate)

	require.True(t, exited)
	assert.Contains(t, msg, "unexpected")
}

func TestKeepaliveSwallowsDeviceErrors(t *testing.T) {
	dev := newFakeDevice()
	logs := stubEnv(t, dev)

	wd := New(testConfig(30, 10, "automatic"))
	wd.Activate()
	require.True(t, wd.IsRunning())

	dev.keepErr = newError("could not send keepalive to watchdog device")
	wd.Keepalive()

	// A missed ping is logged, never re-raised: the device itself fires if
	// pings keep failing
	assert.Len(t, logs.FilterMessageSnippet("keepalive failed").All(), 1)
}

func TestDisableSwallowsDeviceErrors(t *testing.T) {
	dev := newFakeDevice()
	dev.closeErr = newError("could not close watchdog device")
	logs := stubEnv(t, dev)

	wd := New(testConfig(30, 10, "automatic"))
	wd.Activate()
	wd.Disable()

	assert.Len(t, logs.FilterMessageSnippet("error while disabling").All(), 1)
	wd.Keepalive()
	assert.Zero(t, dev.keepaliveCalls, "disabled watchdog sends no pings")
}

func TestUnsupportedPlatform(t *testing.T) {
	t.Run("required terminates at construction", func(t *testing.T) {
		stubEnv(t, nil)

		msg, exited := catchFatal(func() { New(testConfig(30, 10, "required")) })

		require.True(t, exited)
		assert.Contains(t, msg, "not supported on this platform")
	})

	t.Run("automatic downgrades to the no-op device", func(t *testing.T) {
		logs := stubEnv(t, nil)

		wd := New(testConfig(30, 10, "automatic"))
		assert.Len(t, logs.FilterMessageSnippet("no watchdog support on this platform").All(), 1)

		wd.Activate()
		assert.False(t, wd.IsRunning(), "a no-op device can never be running")
		assert.Len(t, logs.FilterMessageSnippet("could not set watchdog timeout").All(), 1)
	})
}
