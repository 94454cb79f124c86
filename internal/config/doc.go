// Package config loads the deadman daemon configuration file.
//
// The configuration is a small YAML file supplying the cluster-health timing
// parameters and the watchdog section:
//
//	ttl: 30
//	loop_wait: 10
//	watchdog:
//	  mode: automatic        # off | automatic | required
//	  device: /dev/watchdog
//	  safety_margin: 5
//
// # Validation
//
// Load rejects non-positive timings and a negative safety margin. The mode
// string is intentionally not validated here: an unrecognized mode must
// degrade to "off" with a logged warning at activation time rather than
// refuse startup, so a typo in the config can never escalate to enforcing
// behavior or take the node down.
package config
