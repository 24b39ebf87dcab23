package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Library set names accepted by engine.libraries.
const (
	LibrariesSafe = "safe"
	LibrariesFull = "full"
)

// Config holds the console configuration.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Prompt  PromptConfig  `toml:"prompt" yaml:"prompt"`
	Engine  EngineConfig  `toml:"engine" yaml:"engine"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// HistoryConfig controls statement history.
type HistoryConfig struct {
	// Length is the number of statements the in-session ring retains.
	Length int `toml:"length" yaml:"length"`

	// File persists line history across sessions. Empty disables
	// persistence.
	File string `toml:"file" yaml:"file"`
}

// PromptConfig overrides the prompt glyphs.
type PromptConfig struct {
	Primary      string `toml:"primary" yaml:"primary"`
	Continuation string `toml:"continuation" yaml:"continuation"`
}

// EngineConfig controls the Lua engine.
type EngineConfig struct {
	// Libraries selects the standard library set: "safe" or "full".
	Libraries string `toml:"libraries" yaml:"libraries"`

	// TimeoutMS aborts statements running longer than this many
	// milliseconds. Zero disables the limit.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			Length: 50,
		},
		Prompt: PromptConfig{
			Primary:      ">>> ",
			Continuation: "... ",
		},
		Engine: EngineConfig{
			Libraries: LibrariesSafe,
			TimeoutMS: 0,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the configuration file at path on top of the defaults. The
// format is chosen by extension: .toml, .yaml or .yml. A missing file is
// not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides configuration values from REPLAY_* environment
// variables. Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv("REPLAY_HISTORY_LENGTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.History.Length = n
		}
	}
	if v, ok := os.LookupEnv("REPLAY_HISTORY_FILE"); ok {
		c.History.File = v
	}
	if v, ok := os.LookupEnv("REPLAY_PROMPT_PRIMARY"); ok {
		c.Prompt.Primary = v
	}
	if v, ok := os.LookupEnv("REPLAY_PROMPT_CONTINUATION"); ok {
		c.Prompt.Continuation = v
	}
	if v, ok := os.LookupEnv("REPLAY_ENGINE_LIBRARIES"); ok {
		c.Engine.Libraries = v
	}
	if v, ok := os.LookupEnv("REPLAY_ENGINE_TIMEOUT_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.TimeoutMS = n
		}
	}
	if v, ok := os.LookupEnv("REPLAY_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("REPLAY_LOG_FILE"); ok {
		c.Log.File = v
	}
}

// Validate checks the configuration for values the console cannot run
// with. All failures wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.History.Length < 1 {
		return fmt.Errorf("%w: history.length must be at least 1, got %d", ErrInvalidConfig, c.History.Length)
	}
	if c.Prompt.Primary == "" {
		return fmt.Errorf("%w: prompt.primary must not be empty", ErrInvalidConfig)
	}
	if c.Prompt.Continuation == "" {
		return fmt.Errorf("%w: prompt.continuation must not be empty", ErrInvalidConfig)
	}
	switch c.Engine.Libraries {
	case LibrariesSafe, LibrariesFull:
	default:
		return fmt.Errorf("%w: engine.libraries must be %q or %q, got %q",
			ErrInvalidConfig, LibrariesSafe, LibrariesFull, c.Engine.Libraries)
	}
	if c.Engine.TimeoutMS < 0 {
		return fmt.Errorf("%w: engine.timeout_ms must not be negative, got %d", ErrInvalidConfig, c.Engine.TimeoutMS)
	}
	return nil
}
