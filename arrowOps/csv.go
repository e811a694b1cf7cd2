package arrowops

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	arrowcsv "github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// NullValues are the cell values read as missing.
var NullValues = []string{"", "NA", "NaN", "nan"}

// ReadCSVFile loads a whole csv file with a header row into a single record.
// Columns listed in floatColumns are parsed as float64, every other column
// is kept as a string. Float columns that are not in the header are ignored
// here and surface later as a column lookup failure.
func ReadCSVFile(ctx context.Context, mem *memory.GoAllocator, filePath string, floatColumns []string) (arrow.Record, error) {
	header, err := readCSVHeader(filePath)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(header))
	for idx, name := range header {
		fields[idx] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
		if slices.Contains(floatColumns, name) {
			fields[idx].Type = arrow.PrimitiveTypes.Float64
		}
	}
	schema := arrow.NewSchema(fields, nil)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer file.Close()

	reader := arrowcsv.NewReader(
		file,
		schema,
		arrowcsv.WithAllocator(mem),
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(-1),
		arrowcsv.WithNullReader(true, NullValues...),
	)
	defer reader.Release()

	var record arrow.Record
	for reader.Next() {
		if record != nil {
			record.Release()
		}
		record = reader.Record()
		record.Retain()
	}
	if err := reader.Err(); err != nil {
		if record != nil {
			record.Release()
		}
		return nil, errs.Wrap(err, fmt.Errorf("failed reading csv file %s", filePath))
	}

	if record == nil {
		// header only
		bldr := array.NewRecordBuilder(mem, schema)
		defer bldr.Release()
		record = bldr.NewRecord()
	}

	return record, nil
}

func readCSVHeader(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer file.Close()

	header, err := csv.NewReader(file).Read()
	if err == io.EOF {
		return nil, errs.NewStackError(fmt.Errorf("%w| file: %s", ErrEmptyHeader, filePath))
	}
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("failed reading csv header of %s", filePath))
	}
	return header, nil
}

// WriteRecordToCSVFile writes the record with a header row, missing values
// as empty cells.
func WriteRecordToCSVFile(ctx context.Context, record arrow.Record, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errs.NewStackError(err)
	}
	defer file.Close()

	writer := arrowcsv.NewWriter(
		file,
		record.Schema(),
		arrowcsv.WithHeader(true),
		arrowcsv.WithNullWriter(""),
	)
	if err := writer.Write(record); err != nil {
		return errs.Wrap(err, fmt.Errorf("failed writing csv file %s", filePath))
	}
	if err := writer.Flush(); err != nil {
		return errs.Wrap(err, fmt.Errorf("failed flushing csv file %s", filePath))
	}

	return file.Close()
}
