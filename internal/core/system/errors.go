package system

import "errors"

// Galaxy errors
var (
	ErrBodyNotFound = errors.New("body not found")
	ErrNoBodies     = errors.New("galaxy has no bodies")
)
