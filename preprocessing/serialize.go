package preprocessing

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/linkedin/goavro/v2"
)

const artifactVersion = 1

type avroField struct {
	Name string      `json:"name"`
	Type interface{} `json:"type"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

type avroCollection struct {
	Type   string      `json:"type"`
	Items  interface{} `json:"items,omitempty"`
	Values interface{} `json:"values,omitempty"`
}

func arrayOf(items interface{}) avroCollection { return avroCollection{Type: "array", Items: items} }
func mapOf(values interface{}) avroCollection  { return avroCollection{Type: "map", Values: values} }

// ColumnTransformerAvroSchema describes a fitted transformer. Step state is
// generic: numeric vectors, string vectors and flags keyed by name.
func ColumnTransformerAvroSchema() (string, error) {
	step := avroRecord{
		Type: "record",
		Name: "Step",
		Fields: []avroField{
			{Name: "name", Type: "string"},
			{Name: "kind", Type: "string"},
			{Name: "columns", Type: arrayOf("string")},
			{Name: "numbers", Type: mapOf(arrayOf("double"))},
			{Name: "strings", Type: mapOf(arrayOf("string"))},
			{Name: "flags", Type: mapOf("boolean")},
		},
	}
	transformer := avroRecord{
		Type: "record",
		Name: "Transformer",
		Fields: []avroField{
			{Name: "name", Type: "string"},
			{Name: "input_type", Type: "string"},
			{Name: "columns", Type: arrayOf("string")},
			{Name: "steps", Type: arrayOf(step)},
		},
	}
	columnTransformer := avroRecord{
		Type: "record",
		Name: "ColumnTransformer",
		Fields: []avroField{
			{Name: "version", Type: "int"},
			{Name: "fitted_at", Type: "long"},
			{Name: "feature_names", Type: arrayOf("string")},
			{Name: "transformers", Type: arrayOf(transformer)},
		},
	}

	data, err := json.Marshal(columnTransformer)
	if err != nil {
		return "", errs.NewStackError(err)
	}
	return string(data), nil
}

// SaveColumnTransformer writes a fitted transformer as a single record avro
// object container file.
func SaveColumnTransformer(filePath string, ct *ColumnTransformer) error {
	datum, err := ColumnTransformerToNative(ct)
	if err != nil {
		return err
	}
	schema, err := ColumnTransformerAvroSchema()
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return errs.NewStackError(err)
	}
	defer file.Close()

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{W: file, Schema: schema})
	if err != nil {
		return errs.Wrap(err, fmt.Errorf("failed creating the avro writer"))
	}
	if err := ocfWriter.Append([]interface{}{datum}); err != nil {
		return errs.Wrap(err, fmt.Errorf("failed writing the transformer to %s", filePath))
	}

	return file.Close()
}

// LoadColumnTransformer reads a transformer written by SaveColumnTransformer.
func LoadColumnTransformer(filePath string) (*ColumnTransformer, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer file.Close()

	ocfReader, err := goavro.NewOCFReader(file)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed reading avro header of %s", filePath))
	}

	var datum interface{}
	count := 0
	for ocfReader.Scan() {
		datum, err = ocfReader.Read()
		if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("failed reading record of %s", filePath))
		}
		count++
	}
	if err := ocfReader.Err(); err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed reading %s", filePath))
	}
	if count != 1 {
		return nil, errs.NewStackError(fmt.Errorf("%w| expected one record, found %d", ErrInvalidArtifact, count))
	}

	return ColumnTransformerFromNative(datum)
}

func stringsToNative(values []string) []interface{} {
	result := make([]interface{}, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}

func floatsToNative(values []float64) []interface{} {
	result := make([]interface{}, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}

// ColumnTransformerToNative converts a fitted transformer into the goavro
// native form of ColumnTransformerAvroSchema.
func ColumnTransformerToNative(ct *ColumnTransformer) (map[string]interface{}, error) {
	if !ct.Fitted() {
		return nil, ErrNotFitted
	}

	transformers := make([]interface{}, 0, len(ct.transformers))
	for _, tr := range ct.transformers {
		steps := make([]interface{}, 0, len(tr.Pipeline.Steps()))
		for _, step := range tr.Pipeline.Steps() {
			native, err := stepToNative(step)
			if err != nil {
				return nil, err
			}
			steps = append(steps, native)
		}
		transformers = append(transformers, map[string]interface{}{
			"name":       tr.Name,
			"input_type": string(tr.InputType),
			"columns":    stringsToNative(tr.Columns),
			"steps":      steps,
		})
	}

	return map[string]interface{}{
		"version":       int32(artifactVersion),
		"fitted_at":     ct.fittedAt.UnixMicro(),
		"feature_names": stringsToNative(ct.featureNames),
		"transformers":  transformers,
	}, nil
}

func stepToNative(step NamedStep) (map[string]interface{}, error) {
	numbers := make(map[string]interface{})
	stringValues := make(map[string]interface{})
	flags := make(map[string]interface{})
	var columns []string

	switch s := step.Step.(type) {
	case *MedianImputer:
		columns = s.columns
		numbers["medians"] = floatsToNative(s.medians)
	case *MostFrequentImputer:
		columns = s.columns
		stringValues["modes"] = stringsToNative(s.modes)
	case *OneHotEncoder:
		columns = s.columns
		for idx, col := range s.columns {
			stringValues[col] = stringsToNative(s.categories[idx])
		}
		flags["error_on_unknown"] = s.policy == UnknownCategoryError
	case *StandardScaler:
		columns = s.columns
		numbers["means"] = floatsToNative(s.means)
		numbers["scales"] = floatsToNative(s.scales)
		flags["with_mean"] = s.withMean
	default:
		return nil, fmt.Errorf("%w| step %s has unsupported kind %s", ErrInvalidArtifact, step.Name, step.Step.Kind())
	}
	if columns == nil {
		return nil, fmt.Errorf("%w| step %s", ErrNotFitted, step.Name)
	}

	return map[string]interface{}{
		"name":    step.Name,
		"kind":    step.Step.Kind(),
		"columns": stringsToNative(columns),
		"numbers": numbers,
		"strings": stringValues,
		"flags":   flags,
	}, nil
}

// ColumnTransformerFromNative rebuilds a fitted transformer from its goavro
// native form.
func ColumnTransformerFromNative(datum interface{}) (*ColumnTransformer, error) {
	fields, ok := datum.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w| record is %T", ErrInvalidArtifact, datum)
	}
	if version, _ := fields["version"].(int32); version != artifactVersion {
		return nil, fmt.Errorf("%w| unsupported version %v", ErrInvalidArtifact, fields["version"])
	}
	fittedAt, ok := fields["fitted_at"].(int64)
	if !ok {
		return nil, fmt.Errorf("%w| fitted_at missing", ErrInvalidArtifact)
	}
	featureNames, err := nativeStrings(fields["feature_names"])
	if err != nil {
		return nil, err
	}
	nativeTransformers, ok := fields["transformers"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w| transformers missing", ErrInvalidArtifact)
	}

	transformers := make([]TransformerSpec, 0, len(nativeTransformers))
	for _, nativeTr := range nativeTransformers {
		tr, err := transformerFromNative(nativeTr)
		if err != nil {
			return nil, err
		}
		transformers = append(transformers, tr)
	}

	ct := NewColumnTransformer(transformers...)
	ct.featureNames = featureNames
	ct.fittedAt = time.UnixMicro(fittedAt).UTC()
	return ct, nil
}

func transformerFromNative(datum interface{}) (TransformerSpec, error) {
	fields, ok := datum.(map[string]interface{})
	if !ok {
		return TransformerSpec{}, fmt.Errorf("%w| transformer is %T", ErrInvalidArtifact, datum)
	}
	name, _ := fields["name"].(string)
	inputType, _ := fields["input_type"].(string)
	columns, err := nativeStrings(fields["columns"])
	if err != nil {
		return TransformerSpec{}, err
	}
	nativeSteps, ok := fields["steps"].([]interface{})
	if !ok {
		return TransformerSpec{}, fmt.Errorf("%w| transformer %s has no steps", ErrInvalidArtifact, name)
	}
	if InputType(inputType) != InputFloat64 && InputType(inputType) != InputUtf8 {
		return TransformerSpec{}, fmt.Errorf("%w| transformer %s input type %q", ErrInvalidArtifact, name, inputType)
	}

	steps := make([]NamedStep, 0, len(nativeSteps))
	for _, nativeStep := range nativeSteps {
		step, err := stepFromNative(nativeStep)
		if err != nil {
			return TransformerSpec{}, fmt.Errorf("%w| transformer %s", err, name)
		}
		steps = append(steps, step)
	}

	return TransformerSpec{
		Name:      name,
		Columns:   columns,
		InputType: InputType(inputType),
		Pipeline:  NewPipeline(steps...),
	}, nil
}

func stepFromNative(datum interface{}) (NamedStep, error) {
	fields, ok := datum.(map[string]interface{})
	if !ok {
		return NamedStep{}, fmt.Errorf("%w| step is %T", ErrInvalidArtifact, datum)
	}
	name, _ := fields["name"].(string)
	kind, _ := fields["kind"].(string)
	columns, err := nativeStrings(fields["columns"])
	if err != nil {
		return NamedStep{}, err
	}
	numbers, _ := fields["numbers"].(map[string]interface{})
	stringValues, _ := fields["strings"].(map[string]interface{})
	flags, _ := fields["flags"].(map[string]interface{})

	numberVector := func(key string) ([]float64, error) {
		values, err := nativeFloats(numbers[key])
		if err != nil {
			return nil, err
		}
		if len(values) != len(columns) {
			return nil, fmt.Errorf("%w| step %s has %d %s for %d columns", ErrInvalidArtifact, name, len(values), key, len(columns))
		}
		return values, nil
	}

	var step Step
	switch kind {
	case KindMedianImputer:
		medians, err := numberVector("medians")
		if err != nil {
			return NamedStep{}, err
		}
		step = &MedianImputer{columns: columns, medians: medians}
	case KindMostFrequentImputer:
		modes, err := nativeStrings(stringValues["modes"])
		if err != nil {
			return NamedStep{}, err
		}
		if len(modes) != len(columns) {
			return NamedStep{}, fmt.Errorf("%w| step %s has %d modes for %d columns", ErrInvalidArtifact, name, len(modes), len(columns))
		}
		step = &MostFrequentImputer{columns: columns, modes: modes}
	case KindOneHotEncoder:
		categories := make([][]string, len(columns))
		for idx, col := range columns {
			if categories[idx], err = nativeStrings(stringValues[col]); err != nil {
				return NamedStep{}, err
			}
		}
		policy := UnknownCategoryIgnore
		if errorOnUnknown, _ := flags["error_on_unknown"].(bool); errorOnUnknown {
			policy = UnknownCategoryError
		}
		step = &OneHotEncoder{policy: policy, columns: columns, categories: categories}
	case KindStandardScaler:
		means, err := numberVector("means")
		if err != nil {
			return NamedStep{}, err
		}
		scales, err := numberVector("scales")
		if err != nil {
			return NamedStep{}, err
		}
		withMean, _ := flags["with_mean"].(bool)
		step = &StandardScaler{withMean: withMean, columns: columns, means: means, scales: scales}
	default:
		return NamedStep{}, fmt.Errorf("%w| step %s has unknown kind %q", ErrInvalidArtifact, name, kind)
	}

	return NamedStep{Name: name, Step: step}, nil
}

func nativeStrings(datum interface{}) ([]string, error) {
	values, ok := datum.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w| expected a string array, got %T", ErrInvalidArtifact, datum)
	}
	result := make([]string, len(values))
	for i, v := range values {
		if result[i], ok = v.(string); !ok {
			return nil, fmt.Errorf("%w| expected a string, got %T", ErrInvalidArtifact, v)
		}
	}
	return result, nil
}

func nativeFloats(datum interface{}) ([]float64, error) {
	values, ok := datum.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w| expected a double array, got %T", ErrInvalidArtifact, datum)
	}
	result := make([]float64, len(values))
	for i, v := range values {
		if result[i], ok = v.(float64); !ok {
			return nil, fmt.Errorf("%w| expected a double, got %T", ErrInvalidArtifact, v)
		}
	}
	return result, nil
}
