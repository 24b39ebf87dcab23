package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/chzyer/readline"

	"github.com/dshills/replay/internal/console/session"
)

// runInteractive drives the session with a readline front end: prompt
// switching, line history, tab completion and interrupt handling.
func (a *App) runInteractive(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            a.session.PromptGlyph(),
		HistoryFile:       a.cfg.History.File,
		HistoryLimit:      a.cfg.History.Length,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         ":quit",
		AutoComplete:      &sessionCompleter{sess: a.session},
	})
	if err != nil {
		return fmt.Errorf("initializing line editor: %w", err)
	}
	defer rl.Close()

	a.printBanner()

	for !a.quitRequested.Load() {
		rl.SetPrompt(a.session.PromptGlyph())

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			// Ctrl-C drops an open continuation, clears a partial
			// line, and on an empty primary prompt leaves.
			if a.session.State() == session.AccumulatingContinuation {
				a.session.AbortContinuation()
				continue
			}
			if len(line) == 0 {
				fmt.Fprintln(a.stdout, dimStyle.Render("bye"))
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(a.stdout, dimStyle.Render("bye"))
			return nil
		case err != nil:
			return fmt.Errorf("reading line: %w", err)
		}

		// Builtins only apply at the primary prompt; continuation
		// lines belong to the statement.
		if a.session.State() == session.AwaitingStatement && a.handleBuiltin(strings.TrimSpace(line)) {
			continue
		}

		if _, err := a.session.SubmitLine(ctx, line); err != nil {
			fmt.Fprintln(a.stderr, errorStyle.Render("error: "+err.Error()))
		}
	}

	fmt.Fprintln(a.stdout, dimStyle.Render("bye"))
	return nil
}

// handleBuiltin runs console commands. It reports false for anything
// that should go to the engine instead.
func (a *App) handleBuiltin(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case ":help", ":h":
		a.printHelp()
	case ":history", ":hist":
		a.printHistory()
	case ":reset":
		if err := a.session.Reset(); err != nil {
			fmt.Fprintln(a.stderr, errorStyle.Render("reset failed: "+err.Error()))
		} else {
			fmt.Fprintln(a.stdout, successStyle.Render("engine state cleared"))
		}
	case ":quit", ":q", ":exit":
		a.quitRequested.Store(true)
	default:
		return false
	}
	return true
}

func (a *App) printBanner() {
	fmt.Fprintln(a.stdout, titleStyle.Render("replay "+a.version))
	fmt.Fprintln(a.stdout, dimStyle.Render(fmt.Sprintf("lua console (%s libraries). :help for commands.", a.cfg.Engine.Libraries)))
}

func (a *App) printHelp() {
	commands := []struct{ cmd, desc string }{
		{":help", "show this help"},
		{":history", "list executed statements"},
		{":reset", "clear engine user state"},
		{":quit", "leave the console (also quit() or ctrl-d)"},
	}

	fmt.Fprintln(a.stdout, titleStyle.Render("commands"))
	for _, c := range commands {
		fmt.Fprintf(a.stdout, "  %-10s %s\n", c.cmd, dimStyle.Render(c.desc))
	}
	fmt.Fprintln(a.stdout, dimStyle.Render("tab completes globals, ctrl-c aborts a continuation"))
}

func (a *App) printHistory() {
	entries := a.session.History().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, dimStyle.Render("history is empty"))
		return
	}

	// Entries come newest first; show them in execution order.
	for i := len(entries) - 1; i >= 0; i-- {
		num := dimStyle.Render(fmt.Sprintf("%4d", len(entries)-i))
		lines := strings.Split(entries[i], "\n")
		fmt.Fprintf(a.stdout, "%s  %s\n", num, lines[0])
		for _, rest := range lines[1:] {
			fmt.Fprintf(a.stdout, "      %s\n", rest)
		}
	}
}

// sessionCompleter adapts session completion to readline. It completes
// the identifier path under the cursor, dots included, so "string.re"
// offers string.rep and string.reverse.
type sessionCompleter struct {
	sess *session.Session
}

func (c *sessionCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}

	start := pos
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}
	word := string(line[start:pos])
	if word == "" {
		return nil, 0
	}

	candidates, ok := c.sess.Complete(word)
	if !ok {
		return nil, 0
	}

	var suffixes [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) {
			suffixes = append(suffixes, []rune(cand[len(word):]))
		}
	}
	return suffixes, len([]rune(word))
}

func isWordRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
