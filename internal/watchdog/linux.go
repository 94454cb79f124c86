package watchdog

import (
	"errors"
	"fmt"
	"syscall"
)

const (
	// pingByte resets the device countdown; any byte except the magic close
	// character works, '1' by convention.
	pingByte = '1'

	// magicCloseByte tells a MAGICCLOSE-capable device to stop counting when
	// the handle is closed. Without it, closing the device leaves the
	// countdown armed and the machine reboots anyway.
	magicCloseByte = 'V'
)

// linuxDevice manages one open watchdog device file end to end. All device
// access goes through a deviceIO, so the protocol behavior is testable
// without hardware.
//
// Not safe for concurrent use; the facade is the sole owner.
type linuxDevice struct {
	path    string
	io      deviceIO
	fd      int
	support *SupportInfo
}

func newLinuxDevice(path string, io deviceIO) *linuxDevice {
	return &linuxDevice{path: path, io: io, fd: -1}
}

// openErrnos are open failures with a recognized operator remedy; they are
// reported as WatchdogError. Anything else propagates unwrapped.
var openErrnos = []syscall.Errno{
	syscall.ENOENT,
	syscall.ENODEV,
	syscall.ENXIO,
	syscall.EACCES,
	syscall.EPERM,
	syscall.EBUSY,
}

func (d *linuxDevice) Open() error {
	fd, err := d.io.Open(d.path)
	if err != nil {
		for _, errno := range openErrnos {
			if errors.Is(err, errno) {
				return wrapError(err, "cannot open watchdog device %s", d.path)
			}
		}
		return err
	}
	d.fd = fd
	return nil
}

// control dispatches one ioctl against the open handle. A control against a
// handle that was never opened is a WatchdogError; an errno once the device
// is open surfaces as the raw I/O failure.
func (d *linuxDevice) control(op uint, buf []byte, mutate bool) error {
	if d.fd < 0 {
		return newError("watchdog device is closed")
	}
	return d.io.Ioctl(d.fd, op, buf, mutate)
}

func (d *linuxDevice) GetSupport() (*SupportInfo, error) {
	if d.support == nil {
		buf := newSupportBuffer()
		if err := d.control(wdiocGetSupport, buf, true); err != nil {
			return nil, err
		}
		info, err := decodeSupportInfo(buf)
		if err != nil {
			return nil, err
		}
		d.support = info
	}
	return d.support, nil
}

func (d *linuxDevice) GetTimeout() (int, error) {
	buf := make([]byte, timeoutSize)
	if err := d.control(wdiocGetTimeout, buf, true); err != nil {
		return 0, wrapError(err, "could not get timeout on watchdog device")
	}
	return decodeTimeout(buf), nil
}

func (d *linuxDevice) SetTimeout(seconds int) error {
	buf, err := encodeTimeout(seconds)
	if err != nil {
		return err
	}
	if err := d.control(wdiocSetTimeout, buf, true); err != nil {
		return wrapError(err, "could not set timeout on watchdog device")
	}
	// The kernel clamps and rounds; the caller re-queries the actual value.
	return nil
}

func (d *linuxDevice) Keepalive() error {
	if d.fd < 0 {
		return newError("watchdog device is closed")
	}
	if _, err := d.io.Write(d.fd, []byte{pingByte}); err != nil {
		return wrapError(err, "could not send keepalive to watchdog device")
	}
	return nil
}

// Close writes the magic close character first when the device supports
// disablement, then releases the handle. If the write fails the handle stays
// open, so a retry can still disable the device before releasing it.
func (d *linuxDevice) Close() error {
	if d.fd < 0 {
		return nil
	}
	if d.CanBeDisabled() {
		if _, err := d.io.Write(d.fd, []byte{magicCloseByte}); err != nil {
			return wrapError(err, "could not disable watchdog device")
		}
	}
	if err := d.io.Close(d.fd); err != nil {
		return wrapError(err, "could not close watchdog device")
	}
	d.fd = -1
	return nil
}

func (d *linuxDevice) CanBeDisabled() bool {
	info, err := d.GetSupport()
	if err != nil {
		return false
	}
	return info.Options.HasFlag(FlagMagicClose)
}

func (d *linuxDevice) Describe() string {
	if d.support != nil && d.support.Identity != "" {
		return fmt.Sprintf("%s at %s", d.support.Identity, d.path)
	}
	return fmt.Sprintf("watchdog device at %s", d.path)
}

func (d *linuxDevice) Running() bool {
	return d.fd >= 0
}
