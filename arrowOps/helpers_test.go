package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func mockData(mem *memory.GoAllocator) arrow.Record {
	recBldr := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{
			{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: "group", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	))
	defer recBldr.Release()
	recBldr.Field(0).(*array.Float64Builder).AppendValues(
		[]float64{10, 20, 0, 40, 50},
		[]bool{true, true, false, true, true},
	)
	recBldr.Field(1).(*array.StringBuilder).AppendValues(
		[]string{"a", "b", "c", "", "e"},
		[]bool{true, true, true, false, true},
	)
	return recBldr.NewRecord()
}
