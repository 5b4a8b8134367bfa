// Package progress defines the observability port used by workflow
// operations to report human-readable status to the surrounding tool
// protocol context.
package progress

import "context"

// Reporter receives fire-and-forget progress messages. Implementations must
// never fail the surrounding operation; delivery errors are swallowed at
// the sink.
type Reporter interface {
	Info(ctx context.Context, message string)
}

// Nop is a Reporter that discards all messages.
type Nop struct{}

// Info implements Reporter.
func (Nop) Info(context.Context, string) {}

// Func adapts a plain function to the Reporter interface.
type Func func(ctx context.Context, message string)

// Info implements Reporter.
func (f Func) Info(ctx context.Context, message string) { f(ctx, message) }
