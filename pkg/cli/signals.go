package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals end the server gracefully.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT}

// SetupSignalHandler returns a context that is canceled on the first
// SIGINT, SIGTERM or SIGQUIT. Calling stop releases the signal handlers;
// after that a second signal kills the process as usual.
func SetupSignalHandler() (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals...)
}
