// Package engine defines the contract between console sessions and the
// language runtimes they drive.
package engine

import (
	"context"
	"io"
)

// Engine is a language runtime hosted behind a console session.
//
// Engines are not safe for concurrent use. A session owns its engine,
// serializes access to it and closes it when the session closes.
type Engine interface {
	// IsComplete reports whether src parses as a complete statement.
	// False means more input can still complete it, as with an open
	// block or an unterminated bracket. A non-nil error means
	// completeness cannot be determined at all; callers should treat
	// such text as complete and let execution surface the diagnostic.
	IsComplete(src string) (bool, error)

	// Execute runs src. Output produced while the statement runs
	// (print and friends) is written to sink in production order.
	// Statement-level failures are reported through Result.Raised with
	// the engine left usable; the error return is reserved for
	// infrastructure failures such as a closed engine.
	Execute(ctx context.Context, src string, sink io.Writer) (Result, error)

	// Close releases the runtime. All later calls fail.
	Close() error
}

// Result describes one statement execution.
type Result struct {
	// Output holds text produced after streaming finished, such as the
	// rendered value of an expression statement.
	Output string

	// ErrOutput holds diagnostic text when the statement raised.
	ErrOutput string

	// Raised reports whether the statement raised an error. The
	// diagnostic is ordinary console output; the session stays healthy.
	Raised bool
}

// Completer is implemented by engines that can complete identifier
// prefixes. Sessions detect the capability once, at construction.
type Completer interface {
	// Complete returns candidate completions for prefix, sorted.
	Complete(prefix string) []string
}

// Interrupter is implemented by engines that can abort an in-flight
// execution. Interrupt is safe to call from another goroutine and is a
// no-op when nothing is executing.
type Interrupter interface {
	Interrupt()
}

// Resetter is implemented by engines that can discard accumulated user
// state without tearing the runtime down.
type Resetter interface {
	Reset() error
}
