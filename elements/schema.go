package elements

import (
	"fmt"
	"slices"
)

// Schema declares which columns of a table feed which preprocessing group.
// It is fixed by the caller and never inferred from the data.
type Schema struct {
	name               string
	numericalColumns   []string
	categoricalColumns []string
	targetColumn       string
}

func NewSchema(name string) *Schema {
	return &Schema{
		name:               name,
		numericalColumns:   []string{},
		categoricalColumns: []string{},
	}
}

// StudentPerformanceSchema is the schema of the student exam dataset the
// pipeline was built for.
func StudentPerformanceSchema() *Schema {
	return NewSchema("student-performance").
		AddNumericalColumns("writing_score", "reading_score").
		AddCategoricalColumns(
			"gender",
			"race_ethnicity",
			"parental_level_of_education",
			"lunch",
			"test_preparation_course",
		).
		SetTargetColumn("math_score")
}

func (obj *Schema) Name() string {
	return obj.name
}

func (obj *Schema) AddNumericalColumns(columns ...string) *Schema {
	obj.numericalColumns = append(obj.numericalColumns, columns...)
	return obj
}

func (obj *Schema) AddCategoricalColumns(columns ...string) *Schema {
	obj.categoricalColumns = append(obj.categoricalColumns, columns...)
	return obj
}

func (obj *Schema) SetTargetColumn(column string) *Schema {
	obj.targetColumn = column
	return obj
}

func (obj *Schema) NumericalColumns() []string {
	return slices.Clone(obj.numericalColumns)
}

func (obj *Schema) CategoricalColumns() []string {
	return slices.Clone(obj.categoricalColumns)
}

func (obj *Schema) TargetColumn() string {
	return obj.targetColumn
}

// FeatureColumns are the transformer inputs: numerical first, then categorical.
func (obj *Schema) FeatureColumns() []string {
	return slices.Concat(obj.numericalColumns, obj.categoricalColumns)
}

// FloatColumns are the columns read as float64 when loading a table.
func (obj *Schema) FloatColumns() []string {
	return append(obj.NumericalColumns(), obj.targetColumn)
}

func (obj *Schema) IsValid() error {
	if obj.name == "" {
		return fmt.Errorf("%w| name invalid", ErrSchemaInvalid)
	}
	if len(obj.numericalColumns) == 0 && len(obj.categoricalColumns) == 0 {
		return fmt.Errorf("%w| schema does not have feature columns", ErrSchemaInvalid)
	}
	if obj.targetColumn == "" {
		return fmt.Errorf("%w| target column missing", ErrSchemaInvalid)
	}

	seen := make(map[string]struct{})
	for _, col := range obj.FeatureColumns() {
		if col == "" {
			return fmt.Errorf("%w| empty column name", ErrSchemaInvalid)
		}
		if _, ok := seen[col]; ok {
			return fmt.Errorf("%w| column %s declared more than once", ErrSchemaInvalid, col)
		}
		seen[col] = struct{}{}
	}
	if _, ok := seen[obj.targetColumn]; ok {
		return fmt.Errorf("%w| target column %s is also a feature column", ErrSchemaInvalid, obj.targetColumn)
	}

	return nil
}
