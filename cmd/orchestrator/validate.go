package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediatrust-hq/orchestrator/pkg/cli"
	"mediatrust-hq/orchestrator/pkg/config"
	"mediatrust-hq/orchestrator/pkg/telemetry/logging"
)

var validateFlags struct {
	format string
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Load the configuration (file, environment and defaults), validate it and
print a summary of the resulting service layout.

Exits with status 2 when the configuration is invalid.

Examples:
  orchestrator validate --config config.yaml
  orchestrator validate --format json`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	cmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format: text, json")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(validateFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), newConfigSummary(cfg, configPath()))
}

// configSummary is what validate prints; it never includes secrets.
type configSummary struct {
	Valid         bool     `json:"valid"`
	ConfigFile    string   `json:"configFile,omitempty"`
	ListenAddress string   `json:"listenAddress"`
	TLS           bool     `json:"tls"`
	APIKeys       int      `json:"apiKeys"`
	Provenance    string   `json:"provenance,omitempty"`
	Watermark     string   `json:"watermark,omitempty"`
	Detectors     []string `json:"detectors"`
	AuditBackend  string   `json:"auditBackend"`
	AuditCache    bool     `json:"auditCache"`
	AssetsBackend string   `json:"assetsBackend"`
	Metrics       bool     `json:"metrics"`
	Tracing       bool     `json:"tracing"`
}

func newConfigSummary(cfg *config.Config, path string) configSummary {
	redactor := logging.NewRedactor()
	s := configSummary{
		Valid:         true,
		ConfigFile:    path,
		ListenAddress: cfg.Server.ListenAddress,
		TLS:           cfg.Server.TLS.Enabled,
		APIKeys:       len(cfg.Server.Auth.APIKeys),
		Provenance:    redactor.RedactString(cfg.Sources.Provenance.BaseURL),
		Watermark:     redactor.RedactString(cfg.Sources.Watermark.BaseURL),
		Detectors:     []string{},
		AuditBackend:  cfg.Audit.Backend,
		AuditCache:    cfg.Audit.Cache.Enabled,
		AssetsBackend: cfg.Assets.Backend,
		Metrics:       cfg.Telemetry.Metrics.Enabled,
		Tracing:       cfg.Telemetry.Tracing.Enabled,
	}
	for _, d := range cfg.Sources.Detectors {
		s.Detectors = append(s.Detectors, fmt.Sprintf("%s (%s)", d.Name, redactor.RedactString(d.BaseURL)))
	}
	return s
}

func (s configSummary) Fields() []cli.Field {
	orNone := func(v string) string {
		if v == "" {
			return "not configured"
		}
		return v
	}
	detectors := "none"
	if len(s.Detectors) > 0 {
		detectors = strings.Join(s.Detectors, ", ")
	}
	configFile := s.ConfigFile
	if configFile == "" {
		configFile = "(defaults and environment)"
	}

	return []cli.Field{
		{Name: "Configuration", Value: "valid"},
		{Name: "Config file", Value: configFile},
		{Name: "Listen address", Value: s.ListenAddress},
		{Name: "TLS", Value: strconv.FormatBool(s.TLS)},
		{Name: "API keys", Value: strconv.Itoa(s.APIKeys)},
		{Name: "Provenance", Value: orNone(s.Provenance)},
		{Name: "Watermark", Value: orNone(s.Watermark)},
		{Name: "Detectors", Value: detectors},
		{Name: "Audit backend", Value: s.AuditBackend},
		{Name: "Audit cache", Value: strconv.FormatBool(s.AuditCache)},
		{Name: "Assets backend", Value: s.AssetsBackend},
		{Name: "Metrics", Value: strconv.FormatBool(s.Metrics)},
		{Name: "Tracing", Value: strconv.FormatBool(s.Tracing)},
	}
}
