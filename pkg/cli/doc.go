/*
Package cli provides command-line helpers for the torch command.

Output Formatting:

Commands that print results (version, push) support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

The server shuts down gracefully, deregistering from Consul, on SIGINT,
SIGTERM or SIGQUIT:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

Errors:

ConfigError and CommandError carry the failing field or command. ExitCode
maps an error returned by a command to the process exit status.
*/
package cli
