package lua

import "errors"

var (
	// ErrEngineClosed indicates use of an engine after Close.
	ErrEngineClosed = errors.New("lua engine closed")
)
