package ingestion

import "errors"

var (
	ErrInvalidTestSize = errors.New("invalid test size")
	ErrTooFewRows      = errors.New("too few rows to split")
)
