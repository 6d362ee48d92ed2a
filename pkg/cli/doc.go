/*
Package cli provides command-line helpers for the eventkeeper command.

Output Formatting:

Command results can be printed as text, JSON or CSV. Values that implement
Table are rendered as aligned columns in text mode and as rows in CSV mode:

	formatter, err := cli.NewFormatterFor("csv")
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, planTable); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes so that an external
scheduler can tell a bad configuration from a partially failed run.
*/
package cli
