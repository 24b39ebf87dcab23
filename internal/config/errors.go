package config

import "errors"

// ErrInvalidConfig indicates a configuration value the console cannot
// run with. Validate wraps it with the failing field.
var ErrInvalidConfig = errors.New("invalid configuration")
