// Package logging provides structured logging on top of log/slog.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON or text output
//   - A level that can be changed at runtime (used by config hot reload)
//   - Context-aware records carrying request, metric and trace IDs
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "Metric updated", "name", "jobs_total")
//
// Components receive a *slog.Logger from Component or Slog. Fields stored
// in the context are added to every record logged with a *Context method.
package logging
