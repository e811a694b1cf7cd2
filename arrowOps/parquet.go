package arrowops

import (
	"context"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	parquetFileUtils "github.com/apache/arrow/go/v17/parquet/file"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"gonum.org/v1/gonum/mat"
)

type ParquetFile struct {
	FilePath string
	NumRows  int64
}

func WriteRecordToParquetFile(ctx context.Context, mem *memory.GoAllocator, record arrow.Record, filePath string) (ParquetFile, error) {

	file, err := os.Create(filePath)
	if err != nil {
		return ParquetFile{}, errs.NewStackError(err)
	}
	defer file.Close()

	parquetWriteProps := parquet.NewWriterProperties(parquet.WithStats(true))
	arrowWriteProps := pqarrow.NewArrowWriterProperties()
	parquetFileWriter, err := pqarrow.NewFileWriter(record.Schema(), file, parquetWriteProps, arrowWriteProps)
	if err != nil {
		return ParquetFile{}, errs.Wrap(err)
	}

	err = parquetFileWriter.Write(record)
	if err != nil {
		parquetFileWriter.Close()
		return ParquetFile{}, errs.Wrap(err)
	}
	if err := parquetFileWriter.Close(); err != nil {
		return ParquetFile{}, errs.Wrap(err)
	}
	return ParquetFile{FilePath: filePath, NumRows: record.NumRows()}, nil
}

// WriteMatrixToParquetFile stores a feature matrix with one float64 column per name.
func WriteMatrixToParquetFile(ctx context.Context, mem *memory.GoAllocator, m *mat.Dense, names []string, filePath string) (ParquetFile, error) {
	record, err := MatrixToRecord(mem, m, names)
	if err != nil {
		return ParquetFile{}, err
	}
	defer record.Release()
	return WriteRecordToParquetFile(ctx, mem, record, filePath)
}

func ReadParquetFile(ctx context.Context, mem *memory.GoAllocator, filePath string) ([]arrow.Record, error) {

	parquetFileReader, err := parquetFileUtils.OpenParquetFile(filePath, false)
	if err != nil {
		return nil, errs.NewStackError(err)
	}
	defer parquetFileReader.Close()

	parquetReadProps := pqarrow.ArrowReadProperties{
		Parallel:  false,
		BatchSize: 1 << 20,
	}
	arrowFileReader, err := pqarrow.NewFileReader(parquetFileReader, parquetReadProps, mem)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	recordReader, err := arrowFileReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	defer recordReader.Release()

	records := make([]arrow.Record, 0)
	for recordReader.Next() {
		record := recordReader.Record()
		record.Retain()
		records = append(records, record)
	}
	if err := recordReader.Err(); err != nil {
		return nil, errs.Wrap(err)
	}

	return records, nil
}
