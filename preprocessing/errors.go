package preprocessing

import (
	"errors"

	"github.com/alekLukanen/featureprep/arrowOps"
)

var (
	ErrNotFitted          = errors.New("transformer is not fitted")
	ErrAlreadyFitted      = errors.New("transformer is already fitted")
	ErrColumnTypeMismatch = errors.New("column type mismatch")
	ErrColumnMismatch     = errors.New("columns differ from the fitted columns")
	ErrEmptyColumn        = errors.New("column has no values to fit on")
	ErrMissingValue       = errors.New("missing value")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownPolicy      = errors.New("unknown category policy")
	ErrMissingTarget      = errors.New("missing target value")
	ErrInvalidArtifact    = errors.New("invalid transformer artifact")
	ErrColumnNotFound     = arrowops.ErrColumnNotFound
)
