// Package cli implements the graphreveal command-line interface.
//
// Commands load a node/edge dataset, build an engine over it and either
// print what an operation would do, apply it, or hand the engine to an
// interactive surface. Views can be kept as sessions and resumed with
// --session. The CLI is built using cobra and logs via charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - inspect: Summarize a dataset and report dropped entities
//   - toggle: Compute, and with --apply commit, a disclosure delta
//   - select: Select nodes and reveal them
//   - render: Draw the current view as DOT, SVG, PNG or PDF
//   - export: Write the visible subgraph as JSON or YAML
//   - explore: Browse the graph in the terminal
//   - serve: Expose the engine over HTTP and WebSocket
//   - session: List, show and delete saved sessions
//   - cache: Manage the dataset and render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one step of a command, such as parsing a dataset or
// rendering a diagram, and logs it at debug level when done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Parsed ontology.json (12ms)".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Debug(msg, keyvals...)
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
