package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default values applied to fields the config file leaves unset.
const (
	DefaultTTL          = 30 // seconds
	DefaultLoopWait     = 10 // seconds
	DefaultDevice       = "/dev/watchdog"
	DefaultSafetyMargin = 5 // seconds
)

// Config is the daemon configuration file.
//
// ttl and loop_wait are the cluster-health timing parameters: ttl is the
// maximum time the cluster tolerates this node being unresponsive, loop_wait
// is the interval between control-loop iterations and therefore between
// keepalive opportunities. Both are whole seconds.
type Config struct {
	TTL      int            `yaml:"ttl"`
	LoopWait int            `yaml:"loop_wait"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
}

// WatchdogConfig is the watchdog section of the config file.
type WatchdogConfig struct {
	// Mode selects enforcement: "off", "automatic" (alias "auto"), or
	// "required". Unrecognized values degrade to "off" with a warning;
	// they are deliberately not rejected here.
	Mode string `yaml:"mode"`

	// Device is the watchdog device path (default /dev/watchdog).
	Device string `yaml:"device,omitempty"`

	// SafetyMargin is subtracted from ttl - loop_wait when requesting a
	// device timeout, leaving headroom for keepalive scheduling jitter.
	// Whole seconds; nil means the default.
	SafetyMargin *int `yaml:"safety_margin,omitempty"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		TTL:      DefaultTTL,
		LoopWait: DefaultLoopWait,
		Watchdog: WatchdogConfig{
			Mode:   "off",
			Device: DefaultDevice,
		},
	}
}

// Load reads and validates a config file. Fields absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges. The watchdog mode string is not validated:
// unknown modes must degrade to "off" at run time, never fail startup.
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %d", c.TTL)
	}
	if c.LoopWait <= 0 {
		return fmt.Errorf("loop_wait must be positive, got %d", c.LoopWait)
	}
	if c.Watchdog.Device == "" {
		return fmt.Errorf("watchdog.device must not be empty")
	}
	if c.Watchdog.SafetyMargin != nil && *c.Watchdog.SafetyMargin < 0 {
		return fmt.Errorf("watchdog.safety_margin must not be negative, got %d", *c.Watchdog.SafetyMargin)
	}
	return nil
}

// SafetyMarginSeconds returns the configured safety margin, or the default
// when the field is unset.
func (c *Config) SafetyMarginSeconds() int {
	if c.Watchdog.SafetyMargin != nil {
		return *c.Watchdog.SafetyMargin
	}
	return DefaultSafetyMargin
}
