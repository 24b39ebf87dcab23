package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/replay/internal/console/history"
	"github.com/dshills/replay/internal/engine"
)

// Default prompt glyphs.
const (
	DefaultPrimaryPrompt      = ">>> "
	DefaultContinuationPrompt = "... "
)

// State identifies what the session is waiting for.
type State int

const (
	// AwaitingStatement means the next line starts a fresh statement.
	AwaitingStatement State = iota
	// AccumulatingContinuation means previous lines formed an incomplete
	// statement and the next line extends it.
	AccumulatingContinuation
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case AwaitingStatement:
		return "awaiting-statement"
	case AccumulatingContinuation:
		return "accumulating-continuation"
	default:
		return "unknown"
	}
}

// PromptKind identifies which prompt glyph the session is showing.
type PromptKind int

const (
	// Primary marks a fresh statement prompt.
	Primary PromptKind = iota
	// Continuation marks a multiline continuation prompt.
	Continuation
)

// Display receives the session's view updates. Implementations are
// supplied by the embedding application; a session without one simply
// keeps its own transcript.
type Display interface {
	// AppendText receives immutable transcript text in display order:
	// captured output and prompt glyphs. The session never echoes the
	// user's own line back through AppendText.
	AppendText(text string)

	// SetInput replaces the editable region after the prompt, as when
	// history recall rewrites the in-progress line.
	SetInput(text string)
}

// SubmitResult reports the outcome of one submitted line.
type SubmitResult struct {
	// Dispatched reports whether a complete statement was executed.
	Dispatched bool
	// Statement is the dispatched statement, newline-joined when it
	// accumulated over several lines. Empty while buffering.
	Statement string
	// Output is everything the statement produced, in order: streamed
	// output, value echo, then any fault diagnostic.
	Output string
	// Faulted reports whether the statement raised. The diagnostic is
	// part of Output; the session remains usable.
	Faulted bool
	// Prompt is the glyph the caller should show next.
	Prompt string
}

// Session is the state machine behind one interactive console. It owns
// its engine, history ring and transcript, dispatches complete
// statements, accumulates continuations and guards the prompt boundary.
//
// A session is single-owner: one goroutine drives it. The single-flight
// guard exists to reject reentrant or misrouted submissions, not to make
// the session concurrent.
type Session struct {
	id uuid.UUID

	eng         engine.Engine
	completer   engine.Completer
	interrupter engine.Interrupter
	resetter    engine.Resetter

	hist       *history.Store
	transcript *Transcript

	pending []string
	state   State

	primary      string
	continuation string
	histLen      int

	display Display
	tee     io.Writer

	executing atomic.Bool
	closed    atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithHistoryLength sets the recall capacity of the history ring.
func WithHistoryLength(n int) Option {
	return func(s *Session) {
		s.histLen = n
	}
}

// WithPrompts overrides the primary and continuation prompt glyphs.
func WithPrompts(primary, continuation string) Option {
	return func(s *Session) {
		s.primary = primary
		s.continuation = continuation
	}
}

// WithDisplay attaches a display surface for view updates.
func WithDisplay(d Display) Option {
	return func(s *Session) {
		s.display = d
	}
}

// WithSink tees statement output to w in addition to the captured
// output returned from SubmitLine. Streamed output reaches w while the
// statement runs; value echoes and fault diagnostics follow when it
// finishes.
func WithSink(w io.Writer) Option {
	return func(s *Session) {
		s.tee = w
	}
}

// NewSession creates a session around eng. The session owns the engine
// and closes it when the session closes. Engine capabilities such as
// completion, interruption and reset are detected here, once.
func NewSession(eng engine.Engine, opts ...Option) (*Session, error) {
	if eng == nil {
		return nil, ErrNilEngine
	}

	s := &Session{
		id:           uuid.New(),
		eng:          eng,
		transcript:   NewTranscript(),
		primary:      DefaultPrimaryPrompt,
		continuation: DefaultContinuationPrompt,
		histLen:      history.DefaultLength,
	}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	if s.primary == "" || s.continuation == "" {
		return nil, ErrInvalidPrompt
	}

	hist, err := history.NewStore(s.histLen)
	if err != nil {
		return nil, err
	}
	s.hist = hist

	if c, ok := eng.(engine.Completer); ok {
		s.completer = c
	}
	if i, ok := eng.(engine.Interrupter); ok {
		s.interrupter = i
	}
	if r, ok := eng.(engine.Resetter); ok {
		s.resetter = r
	}

	s.setPromptAtEnd()
	return s, nil
}

// ID returns the session identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// PromptKind returns the kind of prompt currently showing.
func (s *Session) PromptKind() PromptKind {
	if s.state == AccumulatingContinuation {
		return Continuation
	}
	return Primary
}

// PromptGlyph returns the prompt glyph for the current state.
func (s *Session) PromptGlyph() string {
	if s.state == AccumulatingContinuation {
		return s.continuation
	}
	return s.primary
}

// History returns the session's history ring.
func (s *Session) History() *history.Store {
	return s.hist
}

// TranscriptText returns the full transcript, edit region included.
func (s *Session) TranscriptText() string {
	return s.transcript.Text()
}

// PromptLocation returns the rune offset of the first editable position
// in the transcript.
func (s *Session) PromptLocation() int {
	return s.transcript.PromptLocation()
}

// EditBuffer returns the in-progress text after the prompt.
func (s *Session) EditBuffer() string {
	return s.transcript.EditBuffer()
}

// PendingStatement returns the accumulated continuation lines joined by
// newlines, or empty when no statement is pending.
func (s *Session) PendingStatement() string {
	return strings.Join(s.pending, "\n")
}

// SubmitLine feeds one line of input to the session. Complete statements
// are dispatched to the engine; incomplete ones accumulate until a later
// line completes them. The returned result carries the captured output
// and the prompt to show next.
//
// A line submitted while another statement is executing is rejected with
// ErrStatementInFlight; the engine never sees overlapping executions.
func (s *Session) SubmitLine(ctx context.Context, line string) (SubmitResult, error) {
	if s.closed.Load() {
		return SubmitResult{}, ErrSessionClosed
	}
	if !s.executing.CompareAndSwap(false, true) {
		return SubmitResult{}, ErrStatementInFlight
	}
	defer s.executing.Store(false)

	// The submitted line is sealed into the transcript.
	s.transcript.ReplaceEditBuffer(line)
	s.transcript.freezeInput()

	if s.state == AwaitingStatement {
		if strings.TrimSpace(line) == "" {
			// Nothing to do; show a fresh prompt.
			s.setPromptAtEnd()
			return SubmitResult{Prompt: s.PromptGlyph()}, nil
		}

		complete, err := s.eng.IsComplete(line)
		if err != nil {
			// Completeness unknown: submit as-is and let execution
			// surface the diagnostic.
			complete = true
		}
		if !complete {
			s.pending = append(s.pending, line)
			s.state = AccumulatingContinuation
			s.setPromptAtEnd()
			return SubmitResult{Prompt: s.PromptGlyph()}, nil
		}
		return s.dispatch(ctx, line)
	}

	// Accumulating: every line extends the pending statement, blank ones
	// included. The engine's completeness verdict is the sole authority
	// on when the statement closes.
	s.pending = append(s.pending, line)
	joined := strings.Join(s.pending, "\n")

	complete, err := s.eng.IsComplete(joined)
	if err != nil {
		complete = true
	}
	if !complete {
		s.setPromptAtEnd()
		return SubmitResult{Prompt: s.PromptGlyph()}, nil
	}
	return s.dispatch(ctx, joined)
}

// dispatch executes stmt, interleaves its output into the transcript,
// commits it to history as a single entry and returns to the primary
// prompt.
func (s *Session) dispatch(ctx context.Context, stmt string) (SubmitResult, error) {
	var capture strings.Builder
	sink := io.Writer(&capture)
	if s.tee != nil {
		sink = io.MultiWriter(&capture, s.tee)
	}

	res, err := s.eng.Execute(ctx, stmt, sink)
	if err != nil {
		// Infrastructure failure: the statement never ran and is not
		// committed. The session returns to a usable prompt.
		s.pending = nil
		s.state = AwaitingStatement
		s.setPromptAtEnd()
		return SubmitResult{}, fmt.Errorf("executing statement: %w", err)
	}

	// Value echoes and fault diagnostics arrive in the result rather
	// than through the sink; forward them to the tee so it sees the
	// complete output.
	tail := res.Output + res.ErrOutput
	output := capture.String() + tail
	if output != "" && !strings.HasSuffix(output, "\n") {
		tail += "\n"
		output += "\n"
	}
	if s.tee != nil && tail != "" {
		io.WriteString(s.tee, tail)
	}

	s.transcript.AppendOutput(output)
	if s.display != nil && output != "" {
		s.display.AppendText(output)
	}

	// One statement, one history entry, faults included.
	s.hist.Add(stmt)

	s.pending = nil
	s.state = AwaitingStatement
	s.setPromptAtEnd()

	return SubmitResult{
		Dispatched: true,
		Statement:  stmt,
		Output:     output,
		Faulted:    res.Raised,
		Prompt:     s.PromptGlyph(),
	}, nil
}

// setPromptAtEnd appends the glyph for the current state at the end of
// the transcript and advances the prompt boundary past it.
func (s *Session) setPromptAtEnd() {
	glyph := s.PromptGlyph()
	s.transcript.SetPromptAtEnd(glyph)
	if s.display != nil {
		s.display.AppendText(glyph)
	}
}

// NoteEditBuffer records the current in-progress text. The recorded text
// constrains history navigation to entries sharing its prefix and is
// what recall returns to at the live slot.
func (s *Session) NoteEditBuffer(text string) {
	s.transcript.ReplaceEditBuffer(text)
	s.hist.SetCurrent(text)
}

// ApplyEdit applies an external edit to the transcript. Edits touching
// text before the prompt boundary are rejected with ErrEditRejected and
// change nothing. Accepted edits update the recall prefix.
func (s *Session) ApplyEdit(at, del int, insert string) error {
	if err := s.transcript.ApplyEdit(at, del, insert); err != nil {
		return err
	}
	s.hist.SetCurrent(s.transcript.EditBuffer())
	return nil
}

// RecallPrevious rewrites the in-progress line with the nearest older
// history entry matching the current prefix. Recall is not an edit: the
// prefix recorded by NoteEditBuffer stays in force.
func (s *Session) RecallPrevious() string {
	text := s.hist.Previous()
	s.transcript.ReplaceEditBuffer(text)
	if s.display != nil {
		s.display.SetInput(text)
	}
	return text
}

// RecallNext is the forward counterpart of RecallPrevious. At the live
// slot it restores the text recorded by the latest NoteEditBuffer.
func (s *Session) RecallNext() string {
	text := s.hist.Next()
	s.transcript.ReplaceEditBuffer(text)
	if s.display != nil {
		s.display.SetInput(text)
	}
	return text
}

// AbortContinuation discards accumulated continuation lines and returns
// to the primary prompt. Nothing is committed to history.
func (s *Session) AbortContinuation() {
	if s.state != AccumulatingContinuation {
		return
	}
	s.pending = nil
	s.state = AwaitingStatement
	s.setPromptAtEnd()
}

// Complete asks the engine for completions of prefix. The second return
// is false when the engine does not support completion.
func (s *Session) Complete(prefix string) ([]string, bool) {
	if s.completer == nil {
		return nil, false
	}
	return s.completer.Complete(prefix), true
}

// Interrupt requests cancellation of the execution in flight, if any.
// Engines without the capability ignore it.
func (s *Session) Interrupt() {
	if s.interrupter != nil {
		s.interrupter.Interrupt()
	}
}

// Reset clears engine user state when the engine supports it.
func (s *Session) Reset() error {
	if s.resetter == nil {
		return ErrResetUnsupported
	}
	return s.resetter.Reset()
}

// Close closes the session and its engine.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	return s.eng.Close()
}
