// Package lua implements the console engine contract on top of
// gopher-lua. It is the reference engine for interactive sessions.
//
// # Usage
//
//	eng, err := lua.New(lua.WithFullLibraries())
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	var out strings.Builder
//	res, err := eng.Execute(ctx, `print("hello")`, &out)
//
// # Statement Completeness
//
// IsComplete compiles the text without running it. gopher-lua reports a
// parse error positioned at end of input when the chunk could still be
// completed by more lines ("if x then", an open string, an unclosed
// bracket); that case answers false. Every other outcome answers true,
// including malformed input, which then produces its diagnostic when
// executed.
//
// # Output and Value Echo
//
// Each Execute call points print and io.write at the provided sink, so
// statement output streams in production order. Statements that parse as
// expressions are compiled with a leading "return" and echo their
// values, tab-separated, the way the interactive lua binary does.
//
// # Interruption
//
// Execute wires a cancelable context into the Lua state. Interrupt may
// be called from another goroutine; the abort surfaces as a statement
// fault at an instruction boundary and the state remains usable.
//
// # Library Sets
//
// The default state opens base, table, string and math. WithFullLibraries
// adds package, io, os, debug, channel and coroutine for trusted,
// standalone use.
package lua
