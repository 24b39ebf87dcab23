package app

import "errors"

// ErrIncompleteInput is returned when the input source ends while a
// multiline statement is still open.
var ErrIncompleteInput = errors.New("incomplete statement at end of input")
