// Package logging defines the structured-logging interface used by the repair
// engine, the backup tooling and the CLI.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "revision repaired", "kind", kind, "revision_id", id)
type Logger interface {
	// Debug logs per-revision detail that is off by default.
	Debug(ctx context.Context, msg string, args ...any)

	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a per-record problem that does not stop the pass.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}
