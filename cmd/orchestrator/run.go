package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mediatrust-hq/orchestrator/pkg/cli"
	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/server"
	"mediatrust-hq/orchestrator/pkg/telemetry/health"
	"mediatrust-hq/orchestrator/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	dryRun        bool
	watch         bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the inspection service",
		Long: `Start the HTTP inspection service.

Configuration is read from --config (or $ORCHESTRATOR_CONFIG) when given,
otherwise from defaults and environment variables alone. The service shuts
down gracefully on SIGINT or SIGTERM.

Examples:
  # Start with defaults and environment overrides
  orchestrator run

  # Start with a config file, reloading it on change
  orchestrator run --config /etc/orchestrator/config.yaml

  # Override listen address
  orchestrator run --listen 0.0.0.0:9090

  # Build every component without serving
  orchestrator run --dry-run`,
		Args: cobra.NoArgs,
		RunE: runServer,
	}

	cmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "wire all components and exit without serving")
	cmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload the config file when it changes")

	return cmd
}

func runServer(cmd *cobra.Command, args []string) error {
	path := configPath()
	if err := config.Initialize(path); err != nil {
		return cli.WrapConfigError(err)
	}
	cfg := config.GetConfig()

	applyLogLevelFlag(cfg)
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close components", "error", err)
		}
	}()

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid, all components initialized")
		return nil
	}

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	monitor := health.NewMonitor(a.checker, cfg.Telemetry.Health.ProbeSchedule)
	if err := monitor.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer monitor.Stop()

	if path != "" && runFlags.watch {
		config.OnReload(func(next *config.Config) {
			level := next.Telemetry.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			if err := logger.SetLevel(level); err != nil {
				slog.Warn("ignoring reloaded log level", "level", level, "error", err)
			}
		})

		watcher := config.NewWatcher(path, config.DefaultDebounce)
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("config watcher stopped", "error", err)
			}
		}()
	}

	srv := server.NewServer(&cfg.Server, server.Dependencies{
		Inspector:   a.service,
		Health:      a.checker,
		Metrics:     metricsOrNil(a),
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Version:     versionInfo(),
	})

	slog.Info("orchestrator starting",
		"version", Version,
		"config", path,
		"listen_address", cfg.Server.ListenAddress,
		"audit_backend", cfg.Audit.Backend,
		"assets_backend", cfg.Assets.Backend,
		"detectors", len(a.sources.Detectors),
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// metricsOrNil leaves /metrics unmounted when metrics are disabled.
func metricsOrNil(a *app) *metrics.Collector {
	if !a.cfg.Telemetry.Metrics.Enabled {
		return nil
	}
	return a.collector
}
