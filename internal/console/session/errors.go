package session

import "errors"

// Session errors.
var (
	// ErrNilEngine indicates a session was created without an engine.
	ErrNilEngine = errors.New("session requires an engine")

	// ErrInvalidPrompt indicates an empty prompt glyph was configured.
	ErrInvalidPrompt = errors.New("prompt glyph must not be empty")

	// ErrEditRejected indicates an edit touched protected transcript
	// text before the prompt boundary. The edit is a no-op; the session
	// is unaffected.
	ErrEditRejected = errors.New("edit rejected before prompt boundary")

	// ErrStatementInFlight indicates a submission arrived while another
	// statement was still executing. The new submission is rejected,
	// never interleaved.
	ErrStatementInFlight = errors.New("statement already executing")

	// ErrSessionClosed indicates use of a session after Close.
	ErrSessionClosed = errors.New("session closed")

	// ErrResetUnsupported indicates the engine cannot reset user state.
	ErrResetUnsupported = errors.New("engine does not support reset")
)
