package preprocessing

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

type NamedStep struct {
	Name string
	Step Step
}

// Pipeline runs its steps in order, each one on the output of the previous.
type Pipeline struct {
	steps []NamedStep
}

func NewPipeline(steps ...NamedStep) *Pipeline {
	return &Pipeline{steps: steps}
}

func (obj *Pipeline) Steps() []NamedStep {
	return obj.steps
}

func (obj *Pipeline) Fitted() bool {
	for _, step := range obj.steps {
		if !step.Step.Fitted() {
			return false
		}
	}
	return len(obj.steps) > 0
}

// FitTransform fits every step and returns the output of the last one.
func (obj *Pipeline) FitTransform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
	return obj.run(mem, rec, true)
}

// Transform applies the fitted steps without learning anything.
func (obj *Pipeline) Transform(mem *memory.GoAllocator, rec arrow.Record) (arrow.Record, error) {
	return obj.run(mem, rec, false)
}

func (obj *Pipeline) run(mem *memory.GoAllocator, rec arrow.Record, fit bool) (arrow.Record, error) {
	current := rec
	current.Retain()
	for _, step := range obj.steps {
		if fit {
			if err := step.Step.Fit(current); err != nil {
				current.Release()
				return nil, fmt.Errorf("%w| step %s failed to fit", err, step.Name)
			}
		}

		next, err := step.Step.Transform(mem, current)
		current.Release()
		if err != nil {
			return nil, fmt.Errorf("%w| step %s failed to transform", err, step.Name)
		}
		current = next
	}
	return current, nil
}
