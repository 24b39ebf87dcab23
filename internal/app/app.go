// Package app wires the console together: configuration, logging, the
// Lua engine, the session and the line-oriented front ends.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	glua "github.com/yuin/gopher-lua"
	"golang.org/x/term"

	"github.com/dshills/replay/internal/config"
	"github.com/dshills/replay/internal/console/session"
	lua "github.com/dshills/replay/internal/engine/lua"
)

// App is the console application. It owns one session and runs it
// against an input source until the source ends or quit is requested.
type App struct {
	cfg     *config.Config
	logger  *Logger
	version string

	engine  *lua.Engine
	session *session.Session

	input  io.Reader
	stdout io.Writer
	stderr io.Writer

	watcher *config.Watcher
	logFile *os.File

	quitRequested atomic.Bool
}

// Option configures an App.
type Option func(*App)

// WithLogger overrides the logger built from the configuration.
func WithLogger(l *Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithInput overrides the input source. Anything other than a terminal
// runs in piped mode.
func WithInput(r io.Reader) Option {
	return func(a *App) {
		a.input = r
	}
}

// WithOutput overrides the statement output stream.
func WithOutput(w io.Writer) Option {
	return func(a *App) {
		a.stdout = w
	}
}

// WithErrorOutput overrides the stream for console error messages.
func WithErrorOutput(w io.Writer) Option {
	return func(a *App) {
		a.stderr = w
	}
}

// WithVersion sets the version string shown in the banner.
func WithVersion(v string) Option {
	return func(a *App) {
		a.version = v
	}
}

// New builds the application from cfg: logger, engine, session. The
// engine gains a quit() function that ends the console loop.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		version: "dev",
		input:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		out := io.Writer(a.stderr)
		if cfg.Log.File != "" {
			f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("opening log file: %w", err)
			}
			a.logFile = f
			out = f
		}
		a.logger = NewLogger(LoggerConfig{
			Level:  ParseLogLevel(cfg.Log.Level),
			Output: out,
			Prefix: "replay",
		})
	}

	var engOpts []lua.Option
	if cfg.Engine.Libraries == config.LibrariesFull {
		engOpts = append(engOpts, lua.WithFullLibraries())
	}
	if cfg.Engine.TimeoutMS > 0 {
		engOpts = append(engOpts, lua.WithTimeout(time.Duration(cfg.Engine.TimeoutMS)*time.Millisecond))
	}
	eng, err := lua.New(engOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating lua engine: %w", err)
	}

	if err := eng.RegisterFunc("quit", func(L *glua.LState) int {
		a.quitRequested.Store(true)
		return 0
	}); err != nil {
		eng.Close()
		return nil, fmt.Errorf("registering quit(): %w", err)
	}

	sess, err := session.NewSession(eng,
		session.WithHistoryLength(cfg.History.Length),
		session.WithPrompts(cfg.Prompt.Primary, cfg.Prompt.Continuation),
		session.WithSink(a.stdout),
	)
	if err != nil {
		eng.Close()
		return nil, fmt.Errorf("creating session: %w", err)
	}
	a.engine = eng
	a.session = sess

	a.logger.WithComponent("app").Debug("session %s ready (libraries=%s, history=%d)",
		sess.ID(), cfg.Engine.Libraries, cfg.History.Length)

	return a, nil
}

// Session returns the application's session.
func (a *App) Session() *session.Session {
	return a.session
}

// Run reads and executes statements until the input ends or quit is
// requested. A terminal on stdin gets the line editor; anything else is
// processed in piped mode without prompts.
func (a *App) Run(ctx context.Context) error {
	if a.isTerminal() {
		return a.runInteractive(ctx)
	}
	return a.runPiped(ctx)
}

// RunSource feeds src to the session line by line, as -e does.
func (a *App) RunSource(ctx context.Context, src string) error {
	for _, line := range strings.Split(src, "\n") {
		if _, err := a.session.SubmitLine(ctx, line); err != nil {
			return err
		}
	}
	if a.session.State() == session.AccumulatingContinuation {
		return ErrIncompleteInput
	}
	return nil
}

// Interrupt requests cancellation of the statement in flight.
func (a *App) Interrupt() {
	a.logger.WithComponent("app").Debug("interrupt requested")
	a.session.Interrupt()
}

// WatchConfig reloads the file at path when it changes. Only the log
// level is applied live; other settings need a restart.
func (a *App) WatchConfig(path string) error {
	w, err := config.Watch(path, func(cfg *config.Config, err error) {
		log := a.logger.WithComponent("config")
		if err != nil {
			log.Warn("reload failed: %v", err)
			return
		}
		a.logger.SetLevel(ParseLogLevel(cfg.Log.Level))
		log.Info("configuration reloaded from %s", path)
	})
	if err != nil {
		return fmt.Errorf("watching config: %w", err)
	}
	a.watcher = w
	return nil
}

// Close releases the session, the engine and any open resources.
func (a *App) Close() error {
	var firstErr error
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.session.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// isTerminal reports whether the input is an interactive terminal.
func (a *App) isTerminal() bool {
	f, ok := a.input.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// runPiped executes stdin line by line without prompts. Output still
// flows through the session sink; faults are reported inline and do not
// stop the stream.
func (a *App) runPiped(ctx context.Context) error {
	scanner := bufio.NewScanner(a.input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if a.quitRequested.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.session.SubmitLine(ctx, scanner.Text()); err != nil {
			return fmt.Errorf("submitting line: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if a.session.State() == session.AccumulatingContinuation {
		return ErrIncompleteInput
	}
	return nil
}
