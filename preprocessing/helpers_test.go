package preprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alekLukanen/featureprep/arrowOps"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const studentHeader = "gender,race_ethnicity,parental_level_of_education,lunch,test_preparation_course,math_score,reading_score,writing_score\n"

func writeCSV(t *testing.T, name, contents string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(filePath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return filePath
}

func recordFromCSV(t *testing.T, mem *memory.GoAllocator, contents string, floatColumns ...string) arrow.Record {
	t.Helper()
	rec, err := arrowops.ReadCSVFile(context.Background(), mem, writeCSV(t, "data.csv", contents), floatColumns)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rec
}

func floatRecord(mem *memory.GoAllocator, name string, values []float64, valid []bool) arrow.Record {
	bldr := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}}, nil,
	))
	defer bldr.Release()
	bldr.Field(0).(*array.Float64Builder).AppendValues(values, valid)
	return bldr.NewRecord()
}

func stringRecord(mem *memory.GoAllocator, name string, values []string, valid []bool) arrow.Record {
	bldr := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}}, nil,
	))
	defer bldr.Release()
	bldr.Field(0).(*array.StringBuilder).AppendValues(values, valid)
	return bldr.NewRecord()
}

func floatColumnValues(t *testing.T, rec arrow.Record, idx int) []float64 {
	t.Helper()
	values, err := arrowops.FloatValues(rec.Column(idx))
	if err != nil {
		t.Fatalf("column %d: %v", idx, err)
	}
	return values
}

func stringColumnValues(rec arrow.Record, idx int) []string {
	col := rec.Column(idx).(*array.String)
	values := make([]string, col.Len())
	for i := range values {
		values[i] = col.Value(i)
	}
	return values
}
