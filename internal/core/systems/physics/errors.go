package physics

import "errors"

// Body errors
var (
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrUninitializedHistory = errors.New("previous position read before first step")
	ErrArithmeticDegenerate = errors.New("degenerate arithmetic state")
)
