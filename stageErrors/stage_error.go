package stageerrors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

const (
	StageIngestion      = "ingestion"
	StageTransformation = "transformation"
	StagePersistence    = "persistence"
	StagePublish        = "publish"
	StageApply          = "apply"
)

// StageError is the error surfaced at a pipeline stage boundary. It records
// where the failure was caught so that the run log points at the stage which
// gave up, while Err keeps the original cause for errors.Is/As.
type StageError struct {
	Stage   string
	Message string
	File    string
	Line    int
	Err     error
}

// New wraps err at the caller's location. A StageError passed in is
// returned untouched so the innermost catch point is the one reported.
func New(stage string, err error) error {
	if err == nil {
		return nil
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return err
	}

	file, line := "unknown", 0
	if _, callerFile, callerLine, ok := runtime.Caller(1); ok {
		file, line = filepath.Base(callerFile), callerLine
	}

	return &StageError{
		Stage:   stage,
		Message: err.Error(),
		File:    file,
		Line:    line,
		Err:     err,
	}
}

func (obj *StageError) Error() string {
	return fmt.Sprintf(
		"error occurred in [%s] line [%d] stage [%s]: %s",
		obj.File, obj.Line, obj.Stage, obj.Message,
	)
}

func (obj *StageError) Unwrap() error {
	return obj.Err
}
