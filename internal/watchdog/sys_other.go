//go:build !linux

package watchdog

// defaultPlatformDevice reports no real watchdog support: only the Linux
// watchdog device interface is implemented. The facade substitutes the
// no-op variant (fatal under required mode).
func defaultPlatformDevice(cfg Config) Device {
	return nil
}
