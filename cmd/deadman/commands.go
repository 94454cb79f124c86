package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ha-tools/deadman/internal/config"
	"github.com/ha-tools/deadman/internal/logging"
	"github.com/ha-tools/deadman/internal/runner"
	"github.com/ha-tools/deadman/internal/watchdog"
)

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/deadman/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

// runCmd arms the watchdog and feeds it until the process is asked to stop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Arm the watchdog and keep it fed",
	Long: `Load the configuration, arm the kernel watchdog according to the
configured mode and timings, and send a keepalive every loop_wait until the
process receives SIGINT or SIGTERM.

In required mode the process terminates at startup when no watchdog can
guarantee safe termination; in automatic mode it degrades with a warning.`,
	Example: `  # Run with the default config location
  deadman run

  # Run with an explicit config and verbose logging
  deadman run --config ./config.yaml --log-level debug`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	wd := watchdog.New(watchdogSettings(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := runner.New(wd, time.Duration(cfg.LoopWait)*time.Second)
	return loop.Run(ctx)
}

// checkCmd reports what run would do, without touching the device
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report the watchdog decision for a configuration",
	Long: `Load the configuration and report the resolved mode, the timing
margins, and whether activation would arm the watchdog, degrade, or refuse
to start. The device is never opened.`,
	Example: `  deadman check --config ./config.yaml`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	mode, recognized := watchdog.ParseMode(cfg.Watchdog.Mode)

	fmt.Printf("Configuration: %s\n\n", configPath)
	fmt.Printf("  ttl:           %ds\n", cfg.TTL)
	fmt.Printf("  loop_wait:     %ds\n", cfg.LoopWait)
	fmt.Printf("  safety_margin: %ds\n", cfg.SafetyMarginSeconds())
	fmt.Printf("  device:        %s\n", cfg.Watchdog.Device)
	if recognized {
		fmt.Printf("  mode:          %s\n\n", mode)
	} else {
		fmt.Printf("  mode:          %s (unrecognized %q treated as off)\n\n", mode, cfg.Watchdog.Mode)
	}

	if mode == watchdog.ModeOff {
		fmt.Println("Watchdog is off; no device will be touched.")
		return nil
	}

	requested, ok := watchdog.RequestedTimeout(
		time.Duration(cfg.TTL)*time.Second,
		time.Duration(cfg.LoopWait)*time.Second,
		time.Duration(cfg.SafetyMarginSeconds())*time.Second,
	)
	if !ok {
		fmt.Printf("Timing check FAILED: ttl - loop_wait (%ds) is less than one loop_wait (%ds).\n",
			cfg.TTL-cfg.LoopWait, cfg.LoopWait)
		switch mode {
		case watchdog.ModeRequired:
			fmt.Println("Mode is required: the process would terminate at startup.")
		default:
			fmt.Println("Mode is automatic: the process would continue without a watchdog.")
		}
		return nil
	}

	fmt.Printf("Timing check passed: margin %ds, requested device timeout %ds.\n",
		cfg.TTL-cfg.LoopWait, requested)
	fmt.Printf("Safe negotiated timeout range: %ds <= timeout < %ds.\n", cfg.LoopWait, cfg.TTL)
	return nil
}

// watchdogSettings maps the config file onto the facade configuration.
func watchdogSettings(cfg *config.Config) watchdog.Config {
	return watchdog.Config{
		TTL:          time.Duration(cfg.TTL) * time.Second,
		LoopWait:     time.Duration(cfg.LoopWait) * time.Second,
		Mode:         cfg.Watchdog.Mode,
		Device:       cfg.Watchdog.Device,
		SafetyMargin: time.Duration(cfg.SafetyMarginSeconds()) * time.Second,
	}
}
