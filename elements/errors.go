package elements

import "errors"

var (
	ErrSchemaInvalid = errors.New("schema invalid")
)
