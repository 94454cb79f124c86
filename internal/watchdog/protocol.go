package watchdog

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Wire layout of the Linux watchdog control interface (linux/watchdog.h).
//
// struct watchdog_info {
//     __u32 options;            // capability bitmask
//     __u32 firmware_version;
//     __u8  identity[32];       // null-padded ASCII driver name
// }
//
// Timeouts are exchanged as a single native-endian 32-bit integer of whole
// seconds. The structures cross the kernel boundary in host byte order, so
// the codec uses binary.NativeEndian throughout.
const (
	watchdogInfoSize = 40
	identitySize     = 32
	timeoutSize      = 4

	// maxTimeout is the exclusive upper bound on a timeout request,
	// constrained by the 16-bit counters common in watchdog hardware.
	maxTimeout = 65535
)

// ioctl request encoding, per asm-generic/ioctl.h.
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uint) uint {
	return dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNrShift | size<<iocSizeShift
}

// Watchdog ioctl request codes ('W' is the watchdog ioctl type).
var (
	wdiocGetSupport = ioc(iocRead, 'W', 0, watchdogInfoSize)     // 0x80285700
	wdiocSetTimeout = ioc(iocRead|iocWrite, 'W', 6, timeoutSize) // 0xc0045706
	wdiocGetTimeout = ioc(iocRead, 'W', 7, timeoutSize)          // 0x80045707
)

// SupportInfo is the decoded reply to a GETSUPPORT control.
type SupportInfo struct {
	Options         SupportFlags
	FirmwareVersion uint32
	Identity        string
}

// newSupportBuffer allocates a buffer sized for a GETSUPPORT reply.
func newSupportBuffer() []byte {
	return make([]byte, watchdogInfoSize)
}

// decodeSupportInfo decodes a GETSUPPORT reply buffer.
func decodeSupportInfo(buf []byte) (*SupportInfo, error) {
	if len(buf) != watchdogInfoSize {
		return nil, fmt.Errorf("watchdog support reply must be %d bytes, got %d", watchdogInfoSize, len(buf))
	}

	identity := buf[8 : 8+identitySize]
	if i := bytes.IndexByte(identity, 0); i >= 0 {
		identity = identity[:i]
	}

	return &SupportInfo{
		Options:         SupportFlags(binary.NativeEndian.Uint32(buf[0:4])),
		FirmwareVersion: binary.NativeEndian.Uint32(buf[4:8]),
		Identity:        string(identity),
	}, nil
}

// encodeTimeout encodes a SETTIMEOUT request. The protocol field is wide
// enough for [1, 65534] whole seconds; anything outside that range fails
// before any I/O is attempted.
func encodeTimeout(seconds int) ([]byte, error) {
	if seconds <= 0 || seconds >= maxTimeout {
		return nil, newError("invalid timeout %d: must be between 1 and %d seconds", seconds, maxTimeout-1)
	}
	buf := make([]byte, timeoutSize)
	binary.NativeEndian.PutUint32(buf, uint32(seconds))
	return buf, nil
}

// decodeTimeout decodes a GETTIMEOUT reply (or the value written back into a
// SETTIMEOUT buffer by the kernel).
func decodeTimeout(buf []byte) int {
	return int(binary.NativeEndian.Uint32(buf))
}
