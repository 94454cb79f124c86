package watchdog

// nullDevice is the safe default for platforms or modes with no real
// watchdog. It satisfies the full Device contract but never pretends to
// reduce risk: SetTimeout always fails, because callers must not be told a
// timeout was honored when none exists, and Running is always false.
type nullDevice struct{}

// newNullDevice always constructs successfully; there is nothing to validate.
func newNullDevice() Device {
	return &nullDevice{}
}

func (d *nullDevice) Open() error {
	return nil
}

func (d *nullDevice) GetSupport() (*SupportInfo, error) {
	return &SupportInfo{}, nil
}

func (d *nullDevice) GetTimeout() (int, error) {
	return 0, nil
}

func (d *nullDevice) SetTimeout(seconds int) error {
	return newError("no watchdog available")
}

func (d *nullDevice) Keepalive() error {
	return nil
}

func (d *nullDevice) Close() error {
	return nil
}

// CanBeDisabled is always true: there is nothing to disable.
func (d *nullDevice) CanBeDisabled() bool {
	return true
}

func (d *nullDevice) Describe() string {
	return "null watchdog"
}

func (d *nullDevice) Running() bool {
	return false
}
