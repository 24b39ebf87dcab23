package lua

import (
	"context"
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/dshills/replay/internal/engine"
)

// IsComplete reports whether src parses as a complete chunk. A parse
// error positioned at end of input means more lines can still complete
// the chunk; any other parse error counts as complete, so dispatching
// the text surfaces the diagnostic as ordinary output.
//
// The expression form is probed first, matching interactive Lua: "1 +"
// keeps reading until the expression closes, while "x = 1" falls through
// to the plain chunk check.
func (e *Engine) IsComplete(src string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false, ErrEngineClosed
	}

	_, err := e.L.LoadString("return " + src)
	if err == nil {
		return true, nil
	}
	if atEOF(err) {
		return false, nil
	}

	if _, err := e.L.LoadString(src); err != nil && atEOF(err) {
		return false, nil
	}
	return true, nil
}

// atEOF reports whether err is a parse error at the end of input.
func atEOF(err error) bool {
	if apiErr, ok := err.(*lua.ApiError); ok {
		if perr, ok := apiErr.Cause.(*parse.Error); ok {
			return perr.Pos.Line == parse.EOF
		}
	}
	return false
}

// Execute runs src on the Lua state. Output from print and io.write is
// written to sink as it is produced. Expression statements echo their
// values through Result.Output. Runtime and syntax faults come back as
// Result.Raised with the diagnostic in Result.ErrOutput; the state stays
// usable afterward.
func (e *Engine) Execute(ctx context.Context, src string, sink io.Writer) (engine.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return engine.Result{}, ErrEngineClosed
	}
	if sink == nil {
		sink = io.Discard
	}

	e.redirectOutput(sink)

	runCtx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	e.cancelMu.Lock()
	e.cancelExec = cancel
	e.cancelMu.Unlock()
	defer func() {
		e.cancelMu.Lock()
		e.cancelExec = nil
		e.cancelMu.Unlock()
	}()

	e.L.SetContext(runCtx)
	defer e.L.RemoveContext()

	var res engine.Result
	err := e.withRecovery(func() error {
		res = e.run(runCtx, src)
		return nil
	})
	if err != nil {
		return engine.Result{Raised: true, ErrOutput: err.Error()}, nil
	}
	return res, nil
}

// run compiles and executes one statement. The expression form is tried
// first so that entering "1 + 1" echoes 2, the way interactive Lua does.
func (e *Engine) run(runCtx context.Context, src string) engine.Result {
	fn, err := e.L.LoadString("return " + src)
	echo := err == nil
	if !echo {
		fn, err = e.L.LoadString(src)
		if err != nil {
			return engine.Result{Raised: true, ErrOutput: err.Error()}
		}
	}

	base := e.L.GetTop()
	e.L.Push(fn)
	if err := e.L.PCall(0, lua.MultRet, nil); err != nil {
		e.L.SetTop(base)
		msg := err.Error()
		if runCtx.Err() != nil {
			msg = "execution interrupted: " + runCtx.Err().Error()
		}
		return engine.Result{Raised: true, ErrOutput: msg}
	}

	var out strings.Builder
	if top := e.L.GetTop(); echo && top > base {
		parts := make([]string, 0, top-base)
		for i := base + 1; i <= top; i++ {
			parts = append(parts, e.L.ToStringMeta(e.L.Get(i)).String())
		}
		out.WriteString(strings.Join(parts, "\t"))
		out.WriteByte('\n')
	}
	e.L.SetTop(base)

	return engine.Result{Output: out.String()}
}

// redirectOutput points print and io.write at the sink for the duration
// of one execute call. The next call re-points them, so each statement
// writes into its own capture.
func (e *Engine) redirectOutput(sink io.Writer) {
	e.L.SetGlobal("print", e.L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		_, _ = io.WriteString(sink, strings.Join(parts, "\t")+"\n")
		return 0
	}))

	iolib := e.L.GetGlobal(lua.IoLibName)
	if tbl, ok := iolib.(*lua.LTable); ok {
		e.L.SetField(tbl, "write", e.L.NewFunction(func(L *lua.LState) int {
			top := L.GetTop()
			for i := 1; i <= top; i++ {
				_, _ = io.WriteString(sink, L.CheckString(i))
			}
			return 0
		}))
	}
}

// withRecovery executes fn with panic recovery, converting VM panics
// into errors.
func (e *Engine) withRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
