package preprocessing

import (
	"fmt"
	"slices"
	"time"

	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/alekLukanen/featureprep/elements"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"gonum.org/v1/gonum/mat"
)

type InputType string

const (
	InputFloat64 InputType = "float64"
	InputUtf8    InputType = "utf8"
)

const (
	NumPipelineName = "num_pipeline"
	CatPipelineName = "cat_pipeline"
)

// TransformerSpec binds a pipeline to the columns it consumes.
type TransformerSpec struct {
	Name      string
	Columns   []string
	InputType InputType
	Pipeline  *Pipeline
}

// ColumnTransformer runs one pipeline per column group and places their
// outputs side by side in the order the groups were given.
type ColumnTransformer struct {
	transformers []TransformerSpec
	featureNames []string
	fittedAt     time.Time
}

func NewColumnTransformer(transformers ...TransformerSpec) *ColumnTransformer {
	return &ColumnTransformer{transformers: transformers}
}

// BuildColumnTransformer creates the unfitted transformer for a schema:
// numerical columns are median imputed then standardized, categorical
// columns are mode imputed, one-hot encoded, then scaled without centering.
func BuildColumnTransformer(schema *elements.Schema, policy UnknownCategoryPolicy) (*ColumnTransformer, error) {
	if err := schema.IsValid(); err != nil {
		return nil, err
	}
	if _, err := ParseUnknownCategoryPolicy(string(policy)); err != nil {
		return nil, err
	}

	transformers := make([]TransformerSpec, 0, 2)
	if columns := schema.NumericalColumns(); len(columns) > 0 {
		transformers = append(transformers, TransformerSpec{
			Name:      NumPipelineName,
			Columns:   columns,
			InputType: InputFloat64,
			Pipeline: NewPipeline(
				NamedStep{Name: "imputer", Step: NewMedianImputer()},
				NamedStep{Name: "scaler", Step: NewStandardScaler(true)},
			),
		})
	}
	if columns := schema.CategoricalColumns(); len(columns) > 0 {
		transformers = append(transformers, TransformerSpec{
			Name:      CatPipelineName,
			Columns:   columns,
			InputType: InputUtf8,
			Pipeline: NewPipeline(
				NamedStep{Name: "imputer", Step: NewMostFrequentImputer()},
				NamedStep{Name: "one_hot_encoder", Step: NewOneHotEncoder(policy)},
				NamedStep{Name: "scaler", Step: NewStandardScaler(false)},
			),
		})
	}

	return NewColumnTransformer(transformers...), nil
}

func (obj *ColumnTransformer) Transformers() []TransformerSpec {
	return obj.transformers
}

func (obj *ColumnTransformer) Fitted() bool {
	return obj.featureNames != nil
}

func (obj *ColumnTransformer) FittedAt() time.Time {
	return obj.fittedAt
}

// FeatureNames are the output column names, empty until fitted.
func (obj *ColumnTransformer) FeatureNames() []string {
	return slices.Clone(obj.featureNames)
}

// InputColumns lists every column the transformer reads.
func (obj *ColumnTransformer) InputColumns() []string {
	columns := make([]string, 0)
	for _, tr := range obj.transformers {
		columns = append(columns, tr.Columns...)
	}
	return columns
}

// FloatColumns lists the input columns that must be read as float64.
func (obj *ColumnTransformer) FloatColumns() []string {
	columns := make([]string, 0)
	for _, tr := range obj.transformers {
		if tr.InputType == InputFloat64 {
			columns = append(columns, tr.Columns...)
		}
	}
	return columns
}

// FitTransform learns every pipeline from rec and returns the transformed
// feature matrix. Columns of rec that no pipeline consumes are ignored.
func (obj *ColumnTransformer) FitTransform(mem *memory.GoAllocator, rec arrow.Record) (*mat.Dense, error) {
	if obj.Fitted() {
		return nil, ErrAlreadyFitted
	}

	out, err := obj.run(mem, rec, true)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	matrix, err := arrowops.RecordToMatrix(out)
	if err != nil {
		return nil, err
	}
	obj.featureNames = arrowops.ColumnNames(out)
	obj.fittedAt = time.Now().UTC().Truncate(time.Microsecond)
	return matrix, nil
}

// Transform applies the fitted pipelines to rec.
func (obj *ColumnTransformer) Transform(mem *memory.GoAllocator, rec arrow.Record) (*mat.Dense, error) {
	if !obj.Fitted() {
		return nil, ErrNotFitted
	}

	out, err := obj.run(mem, rec, false)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	return arrowops.RecordToMatrix(out)
}

func (obj *ColumnTransformer) run(mem *memory.GoAllocator, rec arrow.Record, fit bool) (arrow.Record, error) {
	outputs := make([]arrow.Record, 0, len(obj.transformers))
	defer func() {
		for _, out := range outputs {
			out.Release()
		}
	}()

	for _, tr := range obj.transformers {
		for _, col := range tr.Columns {
			if len(rec.Schema().FieldIndices(col)) == 0 {
				return nil, fmt.Errorf("%w| transformer %s column %s", ErrColumnNotFound, tr.Name, col)
			}
		}
		input, err := arrowops.TakeColumns(rec, tr.Columns)
		if err != nil {
			return nil, err
		}

		var out arrow.Record
		if fit {
			out, err = tr.Pipeline.FitTransform(mem, input)
		} else {
			out, err = tr.Pipeline.Transform(mem, input)
		}
		input.Release()
		if err != nil {
			return nil, fmt.Errorf("%w| transformer %s", err, tr.Name)
		}
		outputs = append(outputs, out)
	}

	return arrowops.ConcatenateColumns(outputs...)
}
