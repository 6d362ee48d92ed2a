// Package logging configures structured logging on top of log/slog.
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "retention run started") // includes run_id
//
// The handler returned by New copies run_id, event_id and command from the
// record's context, so components only need to use the *Context logging
// methods to get correlated output.
package logging
