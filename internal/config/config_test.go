package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if got, want := cfg.History.Length, 50; got != want {
		t.Errorf("History.Length = %d, want %d", got, want)
	}
	if got, want := cfg.Prompt.Primary, ">>> "; got != want {
		t.Errorf("Prompt.Primary = %q, want %q", got, want)
	}
	if got, want := cfg.Prompt.Continuation, "... "; got != want {
		t.Errorf("Prompt.Continuation = %q, want %q", got, want)
	}
	if got, want := cfg.Engine.Libraries, LibrariesSafe; got != want {
		t.Errorf("Engine.Libraries = %q, want %q", got, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "replay.toml", `
[history]
length = 100

[prompt]
primary = "lua> "

[engine]
libraries = "full"
timeout_ms = 5000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got, want := cfg.History.Length, 100; got != want {
		t.Errorf("History.Length = %d, want %d", got, want)
	}
	if got, want := cfg.Prompt.Primary, "lua> "; got != want {
		t.Errorf("Prompt.Primary = %q, want %q", got, want)
	}
	// Absent keys keep their defaults.
	if got, want := cfg.Prompt.Continuation, "... "; got != want {
		t.Errorf("Prompt.Continuation = %q, want %q", got, want)
	}
	if got, want := cfg.Engine.Libraries, LibrariesFull; got != want {
		t.Errorf("Engine.Libraries = %q, want %q", got, want)
	}
	if got, want := cfg.Engine.TimeoutMS, 5000; got != want {
		t.Errorf("Engine.TimeoutMS = %d, want %d", got, want)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "replay.yaml", `
history:
  length: 25
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got, want := cfg.History.Length, 25; got != want {
		t.Errorf("History.Length = %d, want %d", got, want)
	}
	if got, want := cfg.Log.Level, "debug"; got != want {
		t.Errorf("Log.Level = %q, want %q", got, want)
	}
	if got, want := cfg.Prompt.Primary, ">>> "; got != want {
		t.Errorf("Prompt.Primary = %q, want default %q", got, want)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults for missing file", err)
	}
	if got, want := cfg.History.Length, Default().History.Length; got != want {
		t.Errorf("History.Length = %d, want default %d", got, want)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "replay.ini", "history=1\n")

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeFile(t, "replay.toml", "[history\nlength = ")

	if _, err := Load(path); err == nil {
		t.Error("Load() error = nil, want parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("REPLAY_HISTORY_LENGTH", "7")
	t.Setenv("REPLAY_PROMPT_PRIMARY", "% ")
	t.Setenv("REPLAY_ENGINE_LIBRARIES", "full")
	t.Setenv("REPLAY_ENGINE_TIMEOUT_MS", "250")
	t.Setenv("REPLAY_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnv()

	if got, want := cfg.History.Length, 7; got != want {
		t.Errorf("History.Length = %d, want %d", got, want)
	}
	if got, want := cfg.Prompt.Primary, "% "; got != want {
		t.Errorf("Prompt.Primary = %q, want %q", got, want)
	}
	if got, want := cfg.Engine.Libraries, LibrariesFull; got != want {
		t.Errorf("Engine.Libraries = %q, want %q", got, want)
	}
	if got, want := cfg.Engine.TimeoutMS, 250; got != want {
		t.Errorf("Engine.TimeoutMS = %d, want %d", got, want)
	}
	if got, want := cfg.Log.Level, "debug"; got != want {
		t.Errorf("Log.Level = %q, want %q", got, want)
	}
}

func TestApplyEnvIgnoresUnparseable(t *testing.T) {
	t.Setenv("REPLAY_HISTORY_LENGTH", "plenty")

	cfg := Default()
	cfg.ApplyEnv()

	if got, want := cfg.History.Length, Default().History.Length; got != want {
		t.Errorf("History.Length = %d, want default %d kept", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero history length", mutate: func(c *Config) { c.History.Length = 0 }},
		{name: "negative history length", mutate: func(c *Config) { c.History.Length = -3 }},
		{name: "empty primary prompt", mutate: func(c *Config) { c.Prompt.Primary = "" }},
		{name: "empty continuation prompt", mutate: func(c *Config) { c.Prompt.Continuation = "" }},
		{name: "unknown library set", mutate: func(c *Config) { c.Engine.Libraries = "everything" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Engine.TimeoutMS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeFile(t, "replay.toml", "[history]\nlength = 10\n")

	reloads := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			t.Errorf("reload error = %v", err)
			return
		}
		reloads <- cfg
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[history]\nlength = 20\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-reloads:
		if got, want := cfg.History.Length, 20; got != want {
			t.Errorf("reloaded History.Length = %d, want %d", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatchDeliversValidationError(t *testing.T) {
	path := writeFile(t, "replay.toml", "[history]\nlength = 10\n")

	errs := make(chan error, 4)
	w, err := Watch(path, func(cfg *Config, err error) {
		errs <- err
	}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[history]\nlength = 0\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case err := <-errs:
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("reload error = %v, want ErrInvalidConfig", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	path := writeFile(t, "replay.toml", "")

	w, err := Watch(path, func(*Config, error) {})
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
