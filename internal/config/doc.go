// Package config loads, validates and watches the console configuration.
//
// Configuration is read from a TOML or YAML file layered over built-in
// defaults, then optionally overridden by REPLAY_* environment
// variables. A missing config file is not an error.
//
// # File Format
//
//	[history]
//	length = 100
//	file = "~/.replay_history"
//
//	[prompt]
//	primary = ">>> "
//	continuation = "... "
//
//	[engine]
//	libraries = "safe"   # or "full"
//	timeout_ms = 5000    # 0 disables the limit
//
//	[log]
//	level = "warn"
//	file = "/tmp/replay.log"
//
// # Environment Overrides
//
// Each field maps to one variable: REPLAY_HISTORY_LENGTH,
// REPLAY_HISTORY_FILE, REPLAY_PROMPT_PRIMARY, REPLAY_PROMPT_CONTINUATION,
// REPLAY_ENGINE_LIBRARIES, REPLAY_ENGINE_TIMEOUT_MS, REPLAY_LOG_LEVEL and
// REPLAY_LOG_FILE.
//
// # Live Reload
//
// Watch observes the config file and delivers reloaded configurations
// after changes settle. Files replaced by rename are picked up because
// the parent directory is watched, not the file itself.
package config
