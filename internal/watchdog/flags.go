package watchdog

import (
	"fmt"
	"sort"
)

// SupportFlags is the capability bitmask a watchdog device reports through
// the GETSUPPORT control. Bit values follow linux/watchdog.h (WDIOF_*).
type SupportFlags uint32

const (
	FlagOverheat      SupportFlags = 0x0001 // Reset due to CPU overheat
	FlagFanFault      SupportFlags = 0x0002 // Fan failed
	FlagExtern1       SupportFlags = 0x0004 // External relay 1
	FlagExtern2       SupportFlags = 0x0008 // External relay 2
	FlagPowerUnder    SupportFlags = 0x0010 // Power bad/power fault
	FlagCardReset     SupportFlags = 0x0020 // Card previously reset the CPU
	FlagPowerOver     SupportFlags = 0x0040 // Power over voltage
	FlagSetTimeout    SupportFlags = 0x0080 // Set timeout (in seconds)
	FlagMagicClose    SupportFlags = 0x0100 // Supports magic close char
	FlagPretimeout    SupportFlags = 0x0200 // Pretimeout (in seconds)
	FlagAlarmOnly     SupportFlags = 0x0400 // Watchdog triggers external alarm, not a reboot
	FlagKeepAlivePing SupportFlags = 0x8000 // Keep alive ping reply
)

// flagsByName is the complete set of recognized capability names. Lookup of
// anything outside this table is an error, never a silent false: an unknown
// name usually means a protocol-version mismatch, and pretending the
// capability is absent would hide that.
var flagsByName = map[string]SupportFlags{
	"OVERHEAT":      FlagOverheat,
	"FANFAULT":      FlagFanFault,
	"EXTERN1":       FlagExtern1,
	"EXTERN2":       FlagExtern2,
	"POWERUNDER":    FlagPowerUnder,
	"CARDRESET":     FlagCardReset,
	"POWEROVER":     FlagPowerOver,
	"SETTIMEOUT":    FlagSetTimeout,
	"MAGICCLOSE":    FlagMagicClose,
	"PRETIMEOUT":    FlagPretimeout,
	"ALARMONLY":     FlagAlarmOnly,
	"KEEPALIVEPING": FlagKeepAlivePing,
}

// Has reports whether the named capability is present. Unknown names fail
// with an error rather than defaulting to false.
func (f SupportFlags) Has(name string) (bool, error) {
	bit, ok := flagsByName[name]
	if !ok {
		return false, fmt.Errorf("unknown watchdog capability %q", name)
	}
	return f&bit != 0, nil
}

// HasFlag reports whether all bits of flag are set.
func (f SupportFlags) HasFlag(flag SupportFlags) bool {
	return f&flag == flag
}

// Names returns the sorted names of all set capabilities.
func (f SupportFlags) Names() []string {
	var names []string
	for name, bit := range flagsByName {
		if f&bit != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
