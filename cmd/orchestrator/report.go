package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/cli"
	"mediatrust-hq/orchestrator/pkg/inspection"
)

// reportTimeout bounds the audit lookup of the report command.
const reportTimeout = 30 * time.Second

var reportFlags struct {
	format string
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <assetId>",
		Short: "Print the stored inspection report for an asset",
		Long: `Read an inspection report from the configured audit store.

Exits with status 3 when no report exists for the asset.

Examples:
  # Human readable summary
  orchestrator report asset-123

  # Full report as JSON
  orchestrator report asset-123 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}

	cmd.Flags().StringVarP(&reportFlags.format, "format", "f", "text", "output format: text, json")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(reportFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := newLogger(cfg); err != nil {
		return err
	}

	store, err := openAuditStore(&cfg.Audit)
	if err != nil {
		return cli.NewCommandError("report", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), reportTimeout)
	defer cancel()

	assetID := args[0]
	rec, err := store.Find(ctx, assetID)
	if errors.Is(err, audit.ErrNotFound) {
		return fmt.Errorf("no report for asset %q: %w", assetID, cli.ErrNotFound)
	}
	if err != nil {
		return cli.NewCommandError("report", err)
	}

	resp := inspection.NewReportResponse(rec)
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), resp)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), reportView{resp})
}

// reportView renders a report as a text summary.
type reportView struct {
	*inspection.ReportResponse
}

func (v reportView) Fields() []cli.Field {
	fields := []cli.Field{
		{Name: "Asset", Value: v.AssetID},
		{Name: "Verdict", Value: string(v.Verdict)},
		{Name: "Confidence", Value: strconv.FormatFloat(v.Confidence, 'f', 2, 64)},
		{Name: "Stored at", Value: v.StoredAt},
	}
	if v.StorageLocation != "" {
		fields = append(fields, cli.Field{Name: "Location", Value: v.StorageLocation})
	}

	ev := v.Evidence
	switch {
	case ev.Provenance == nil:
		fields = append(fields, cli.Field{Name: "Provenance", Value: "not checked"})
	case ev.Provenance.Valid:
		value := "valid"
		if ev.Provenance.Issuer != "" {
			value += " (issuer " + ev.Provenance.Issuer + ")"
		}
		fields = append(fields, cli.Field{Name: "Provenance", Value: value})
	default:
		value := "invalid"
		if len(ev.Provenance.Errors) > 0 {
			value += ": " + strings.Join(ev.Provenance.Errors, "; ")
		}
		fields = append(fields, cli.Field{Name: "Provenance", Value: value})
	}

	if ev.Watermark == nil {
		fields = append(fields, cli.Field{Name: "Watermark", Value: "not checked"})
	} else {
		fields = append(fields, cli.Field{
			Name:  "Watermark",
			Value: fmt.Sprintf("present=%t confidence=%.2f", ev.Watermark.Present, ev.Watermark.Confidence),
		})
	}

	if len(ev.Detectors) == 0 {
		fields = append(fields, cli.Field{Name: "Detectors", Value: "none"})
	}
	for _, d := range ev.Detectors {
		fields = append(fields, cli.Field{
			Name:  "Detector",
			Value: fmt.Sprintf("%s score=%.2f model=%s", d.Label, d.Score, d.ModelVersion),
		})
	}

	return fields
}
