package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/replay/internal/engine"
)

// The engine satisfies the full capability surface.
var (
	_ engine.Engine      = (*Engine)(nil)
	_ engine.Completer   = (*Engine)(nil)
	_ engine.Interrupter = (*Engine)(nil)
	_ engine.Resetter    = (*Engine)(nil)
)

// Engine hosts a gopher-lua runtime behind the console engine contract.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. All operations on
// an Engine must come from a single goroutine, or external synchronization
// must be used. The mutex here protects against concurrent access from Go
// code; Lua execution itself is inherently single-threaded. Interrupt is
// the one method designed to be called from another goroutine.
type Engine struct {
	L *lua.LState

	mu sync.Mutex

	// Configuration
	registrySize int
	timeout      time.Duration
	fullLibs     bool

	// Interrupt handling
	cancelMu   sync.Mutex
	cancelExec context.CancelFunc

	// Globals present right after library setup; Reset removes
	// everything else.
	baseline map[string]bool

	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFullLibraries opens the complete Lua standard library, including
// io, os, package, debug, channel and coroutine. The default opens only
// the safe subset: base, table, string and math.
func WithFullLibraries() Option {
	return func(e *Engine) {
		e.fullLibs = true
	}
}

// WithRegistrySize sets the initial registry size of the Lua state.
func WithRegistrySize(size int) Option {
	return func(e *Engine) {
		e.registrySize = size
	}
}

// WithTimeout sets a per-execution deadline. Zero means no deadline; the
// console user owns the pace and interrupts explicitly.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates a Lua engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}

	// Apply options
	for _, opt := range opts {
		opt(e)
	}

	lopts := lua.Options{
		SkipOpenLibs: true, // opened selectively below
	}
	if e.registrySize > 0 {
		lopts.RegistrySize = e.registrySize
	}
	e.L = lua.NewState(lopts)

	if err := e.openLibraries(); err != nil {
		e.L.Close()
		return nil, err
	}

	e.baseline = make(map[string]bool)
	e.L.G.Global.ForEach(func(k, _ lua.LValue) {
		if name, ok := k.(lua.LString); ok {
			e.baseline[string(name)] = true
		}
	})

	return e, nil
}

// stdlib pairs a Lua library name with its loader.
type stdlib struct {
	name string
	open lua.LGFunction
}

// safeLibraries is the default set: no file system, process or module
// loading access.
var safeLibraries = []stdlib{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// fullLibraries is the complete standard library in canonical load order.
var fullLibraries = []stdlib{
	{lua.LoadLibName, lua.OpenPackage},
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.IoLibName, lua.OpenIo},
	{lua.OsLibName, lua.OpenOs},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
	{lua.DebugLibName, lua.OpenDebug},
	{lua.ChannelLibName, lua.OpenChannel},
	{lua.CoroutineLibName, lua.OpenCoroutine},
}

// openLibraries opens the configured standard library set.
func (e *Engine) openLibraries() error {
	libs := safeLibraries
	if e.fullLibs {
		libs = fullLibraries
	}

	for _, lib := range libs {
		if err := e.L.CallByParam(lua.P{
			Fn:      e.L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			name := lib.name
			if name == "" {
				name = "base"
			}
			return fmt.Errorf("opening %s library: %w", name, err)
		}
	}
	return nil
}

// RegisterFunc exposes a Go function as a global Lua function. Hosts use
// this to bind application operations into the console.
func (e *Engine) RegisterFunc(name string, fn lua.LGFunction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	e.L.SetGlobal(name, e.L.NewFunction(fn))
	e.baseline[name] = true
	return nil
}

// RegisterModule exposes a table of Go functions as a global module.
func (e *Engine) RegisterModule(name string, funcs map[string]lua.LGFunction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	mod := e.L.SetFuncs(e.L.NewTable(), funcs)
	e.L.SetGlobal(name, mod)
	e.baseline[name] = true
	return nil
}

// Reset removes user-defined globals while preserving the libraries and
// registered host functions. It is cheaper than building a new engine but
// does not clean registry entries or metatables.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	var drop []lua.LValue
	e.L.G.Global.ForEach(func(k, _ lua.LValue) {
		if name, ok := k.(lua.LString); ok {
			if !e.baseline[string(name)] {
				drop = append(drop, k)
			}
		}
	})
	for _, k := range drop {
		e.L.SetGlobal(k.String(), lua.LNil)
	}
	return nil
}

// Interrupt aborts the execution in flight, if any. It is safe to call
// from another goroutine and does nothing when the engine is idle.
func (e *Engine) Interrupt() {
	e.cancelMu.Lock()
	cancel := e.cancelExec
	e.cancelMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// IsClosed reports whether the engine has been closed.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close releases the Lua state. After Close all other methods fail with
// ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.L.Close()
	e.closed = true
	return nil
}
