//go:build linux

package watchdog

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sysIO is the real deviceIO, issuing syscalls against the kernel watchdog
// driver.
type sysIO struct{}

func (sysIO) Open(path string) (int, error) {
	// O_WRONLY: the watchdog interface is write/ioctl only, and opening
	// read-write is refused by some drivers.
	return unix.Open(path, unix.O_WRONLY, 0)
}

func (sysIO) Ioctl(fd int, op uint, buf []byte, mutate bool) error {
	// The kernel reads or writes through the buffer pointer according to
	// the direction bits encoded in op; mutate only documents intent here.
	var arg uintptr
	if len(buf) > 0 {
		arg = uintptr(unsafe.Pointer(&buf[0]))
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(op), arg)
	runtime.KeepAlive(buf)
	if errno != 0 {
		return errno
	}
	return nil
}

func (sysIO) Write(fd int, data []byte) (int, error) {
	return unix.Write(fd, data)
}

func (sysIO) Close(fd int) error {
	return unix.Close(fd)
}

// defaultPlatformDevice returns the real device variant for this host.
func defaultPlatformDevice(cfg Config) Device {
	return newLinuxDevice(cfg.Device, sysIO{})
}
