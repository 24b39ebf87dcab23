// Package main is the entry point for the replay console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dshills/replay/internal/app"
	"github.com/dshills/replay/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.ShowVersion {
		fmt.Printf("replay %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built:  %s\n", date)
		return 0
	}

	if opts.ShowHelp {
		flag.Usage()
		return 0
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	cfg.ApplyEnv()
	applyFlags(cfg, opts)

	application, err := app.New(cfg, app.WithVersion(version))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if opts.WatchConfig {
		if configPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -watch-config requires a config file path")
			return 1
		}
		if err := application.WatchConfig(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to watch config: %v\n", err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first signal aborts the running statement, the second one
	// tears the process down.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		application.Interrupt()
		<-signals
		cancel()
	}()

	if opts.Execute != "" {
		err = application.RunSource(ctx, opts.Execute)
	} else {
		err = application.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// Options holds parsed command-line options.
type Options struct {
	ConfigPath    string
	Execute       string
	Libraries     string
	HistoryLength int
	TimeoutMS     int
	LogLevel      string
	LogFile       string
	WatchConfig   bool
	ShowVersion   bool
	ShowHelp      bool
}

func parseFlags() Options {
	var opts Options

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to config file (shorthand)")
	flag.StringVar(&opts.Execute, "execute", "", "Execute source and exit")
	flag.StringVar(&opts.Execute, "e", "", "Execute source and exit (shorthand)")
	flag.StringVar(&opts.Libraries, "libs", "safe", "Library profile: safe or full")
	flag.IntVar(&opts.HistoryLength, "history-length", 50, "Number of history entries to keep")
	flag.IntVar(&opts.TimeoutMS, "timeout-ms", 0, "Per-statement timeout in milliseconds (0 disables)")
	flag.StringVar(&opts.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.LogFile, "log-file", "", "Write diagnostics to a file instead of stderr")
	flag.BoolVar(&opts.WatchConfig, "watch-config", false, "Reload the config file when it changes")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&opts.ShowVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show help message")
	flag.BoolVar(&opts.ShowHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "replay - an embeddable Lua console\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  replay                     Start an interactive console\n")
		fmt.Fprintf(os.Stderr, "  replay -libs full          Enable io, os and the rest of the stdlib\n")
		fmt.Fprintf(os.Stderr, "  replay -e 'print(1+1)'     Execute source and exit\n")
		fmt.Fprintf(os.Stderr, "  replay < script.lua        Run statements from stdin\n")
	}

	flag.Parse()

	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level '%s' (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	switch opts.Libraries {
	case config.LibrariesSafe, config.LibrariesFull:
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid library profile '%s' (must be safe or full)\n", opts.Libraries)
		os.Exit(1)
	}

	return opts
}

// applyFlags copies explicitly set flags over the loaded config so that
// command-line options win over both the file and the environment.
func applyFlags(cfg *config.Config, opts Options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "libs":
			cfg.Engine.Libraries = opts.Libraries
		case "history-length":
			cfg.History.Length = opts.HistoryLength
		case "timeout-ms":
			cfg.Engine.TimeoutMS = opts.TimeoutMS
		case "log-level":
			cfg.Log.Level = opts.LogLevel
		case "log-file":
			cfg.Log.File = opts.LogFile
		}
	})
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "replay", "replay.toml")
}
