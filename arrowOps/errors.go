package arrowops

import "errors"

var (
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrColumnNotFound      = errors.New("column not found")
	ErrUnexpectedNull      = errors.New("unexpected null value")
	ErrRowCountMismatch    = errors.New("row count mismatch")
	ErrEmptyHeader         = errors.New("csv header is empty")
	ErrIndexOutOfRange     = errors.New("index out of range")
)
