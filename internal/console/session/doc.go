// Package session implements the interactive console state machine.
//
// A Session sits between a line-oriented front end and an execution
// engine. It shows a primary prompt for fresh statements and a
// continuation prompt while a multiline statement accumulates, asks the
// engine whether the input so far parses to completion, dispatches
// complete statements and commits each dispatched statement to history
// as a single entry.
//
// # Basic Usage
//
//	eng, _ := lua.New()
//	sess, _ := session.NewSession(eng)
//	defer sess.Close()
//
//	res, _ := sess.SubmitLine(ctx, "if x then")
//	// res.Dispatched == false, res.Prompt == "... "
//	res, _ = sess.SubmitLine(ctx, "end")
//	// res.Dispatched == true, res.Statement == "if x then\nend"
//
// # Transcript and Prompt Boundary
//
// The session keeps a transcript of everything shown: output, prompt
// glyphs and the in-progress line. Text before the prompt boundary is
// immutable; ApplyEdit rejects edits that touch it. The boundary only
// moves forward.
//
// # History Recall
//
// RecallPrevious and RecallNext walk the history ring. Navigation is
// constrained to entries sharing the prefix recorded by the most recent
// NoteEditBuffer, so typing "x" and pressing up skips entries that do
// not start with "x". Recall itself never changes the prefix.
//
// # Engine Capabilities
//
// Optional engine capabilities are detected once, when the session is
// constructed. Complete reports false for engines without completion;
// Interrupt is a no-op without interruption; Reset returns
// ErrResetUnsupported without reset support.
package session
