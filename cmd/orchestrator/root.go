package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediatrust-hq/orchestrator/pkg/cli"
	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/telemetry/logging"
)

// configEnvVar names the config file when --config is not given.
const configEnvVar = config.EnvPrefix + "CONFIG"

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orchestrator",
		Short: "Media trust inspection orchestrator",
		Long: `The orchestrator inspects media assets for authenticity.

For every asset it concurrently gathers:
  - Provenance verification (signed origin and edit history)
  - Watermark detection (SynthID)
  - Passive deepfake detectors (Sensity, Hive, Reality Defender)

and fuses the evidence into an approved, flagged, reject or unknown verdict
that is persisted as an audit report.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: $"+configEnvVar+", else defaults and environment only)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(), newReportCmd(), newValidateCmd(), newVersionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// configPath resolves the config file from the flag or the environment.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv(configEnvVar)
}

// loadConfig loads configuration without touching the process singleton.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(configPath())
	if err != nil {
		return nil, cli.WrapConfigError(err)
	}
	applyLogLevelFlag(cfg)
	return cfg, nil
}

func applyLogLevelFlag(cfg *config.Config) {
	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    cfg.Telemetry.Logging.Redact,
		Writer:    os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return logger, nil
}
