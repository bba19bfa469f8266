/*
Package cli provides command-line helpers for the orchestrator binary.

Output Formatting:

Commands print results as text or JSON:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Values implementing Fielder render as an aligned name/value table in text
mode.

Errors and Exit Codes:

ConfigError and CommandError wrap failures at the command boundary.
ExitCode maps them to process exit codes: 2 for configuration problems,
3 for ErrNotFound and 1 for anything else.

Signal Handling:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

The context is canceled on the first SIGINT or SIGTERM; a second signal
exits immediately.
*/
package cli
