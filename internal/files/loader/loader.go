package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	pqfile "github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/nyc-warehouse/snapload/internal/checksum"
	"github.com/nyc-warehouse/snapload/internal/files/filesystem"
	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// recordChunk bounds how many rows are converted per Arrow record batch.
const recordChunk = 64 * 1024

// ParquetLoader reads parquet snapshots into memory.
type ParquetLoader struct {
	fsProvider filesystem.FileSystemProvider
	calculator checksum.Calculator
	allocator  memory.Allocator
	logger     snapload.Logger
}

var _ snapload.DatasetReader = (*ParquetLoader)(nil)

// NewParquetLoader creates a loader backed by the OS filesystem.
func NewParquetLoader(logger snapload.Logger) *ParquetLoader {
	return NewParquetLoaderWithFS(filesystem.NewOSFileSystem(), checksum.New(), logger)
}

// NewParquetLoaderWithFS creates a loader with explicit dependencies.
func NewParquetLoaderWithFS(fsProvider filesystem.FileSystemProvider, calculator checksum.Calculator, logger snapload.Logger) *ParquetLoader {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if calculator == nil {
		panic("calculator cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &ParquetLoader{
		fsProvider: fsProvider,
		calculator: calculator,
		allocator:  memory.DefaultAllocator,
		logger:     logger,
	}
}

// Read decodes the parquet file at path. Every failure wraps
// snapload.ErrSourceUnavailable.
func (l *ParquetLoader) Read(ctx context.Context, path string) (*snapload.Dataset, error) {
	f, err := l.fsProvider.Open(path)
	if err != nil {
		return nil, sourceError(path, "open", err)
	}
	defer f.Close()

	sum, err := l.calculator.CalculateReader(io.NewSectionReader(f, 0, f.Size()))
	if err != nil {
		return nil, sourceError(path, "checksum", err)
	}

	pqReader, err := pqfile.NewParquetReader(f)
	if err != nil {
		return nil, sourceError(path, "open parquet", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{BatchSize: recordChunk}, l.allocator)
	if err != nil {
		return nil, sourceError(path, "create arrow reader", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, sourceError(path, "read table", err)
	}
	defer table.Release()

	columns, err := columnsFromSchema(table.Schema())
	if err != nil {
		return nil, sourceError(path, "schema", err)
	}

	ds := &snapload.Dataset{
		Source:   path,
		Columns:  columns,
		Rows:     make([][]any, 0, table.NumRows()),
		Checksum: sum,
	}

	tableReader := array.NewTableReader(table, recordChunk)
	defer tableReader.Release()

	for tableReader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record := tableReader.Record()
		n := int(record.NumRows())
		cols := record.Columns()
		for i := 0; i < n; i++ {
			row := make([]any, len(cols))
			for j, col := range cols {
				v, err := valueAt(col, i)
				if err != nil {
					return nil, sourceError(path, fmt.Sprintf("column %q", columns[j].Name), err)
				}
				row[j] = v
			}
			ds.Rows = append(ds.Rows, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, sourceError(path, "read records", err)
	}

	l.logger.Verbose("Read %s: %d rows, %d columns, sha256 %s", path, len(ds.Rows), len(columns), checksum.Short(sum))
	return ds, nil
}

func sourceError(path, op string, err error) error {
	return fmt.Errorf("%s: %s: %w: %w", path, op, snapload.ErrSourceUnavailable, err)
}

// columnsFromSchema maps Arrow field types onto dataset column types.
// Unknown types are carried as text.
func columnsFromSchema(schema *arrow.Schema) ([]snapload.Column, error) {
	fields := schema.Fields()
	cols := make([]snapload.Column, len(fields))
	for i, field := range fields {
		if field.Name == "" {
			return nil, fmt.Errorf("field %d has no name", i)
		}
		cols[i] = snapload.Column{Name: field.Name, Type: columnType(field.Type)}
	}
	return cols, nil
}

func columnType(dt arrow.DataType) snapload.ColumnType {
	switch dt.ID() {
	case arrow.BOOL:
		return snapload.TypeBoolean
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return snapload.TypeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64, arrow.DECIMAL128, arrow.DECIMAL256:
		return snapload.TypeFloat
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return snapload.TypeBinary
	case arrow.DATE32, arrow.DATE64:
		return snapload.TypeDate
	case arrow.TIMESTAMP:
		if ts, ok := dt.(*arrow.TimestampType); ok && ts.TimeZone != "" {
			return snapload.TypeTimestampTZ
		}
		return snapload.TypeTimestamp
	default:
		return snapload.TypeText
	}
}

// valueAt returns row i of col as a Go value owned by the caller.
// Strings and byte slices are copied out of the Arrow buffers.
func valueAt(col arrow.Array, i int) (any, error) {
	if col.IsNull(i) {
		return nil, nil
	}
	switch a := col.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		return int64(a.Value(i)), nil
	case *array.Uint16:
		return int64(a.Value(i)), nil
	case *array.Uint32:
		return int64(a.Value(i)), nil
	case *array.Uint64:
		v := a.Value(i)
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case *array.Float16:
		return float64(a.Value(i).Float32()), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Decimal128:
		return a.Value(i).ToFloat64(a.DataType().(*arrow.Decimal128Type).Scale), nil
	case *array.Decimal256:
		return a.Value(i).ToFloat64(a.DataType().(*arrow.Decimal256Type).Scale), nil
	case *array.String:
		return strings.Clone(a.Value(i)), nil
	case *array.LargeString:
		return strings.Clone(a.Value(i)), nil
	case *array.Binary:
		return bytes.Clone(a.Value(i)), nil
	case *array.LargeBinary:
		return bytes.Clone(a.Value(i)), nil
	case *array.FixedSizeBinary:
		return bytes.Clone(a.Value(i)), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	default:
		return col.ValueStr(i), nil
	}
}
