/*
Package cli provides helpers shared by the atelier subcommands.

Errors:

ConfigError and CommandError classify failures; ExitCode maps them to the
process exit status.

Output Formatting:

Command results can be printed as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
