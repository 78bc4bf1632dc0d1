// Package fixtures builds parquet snapshot files for tests.
package fixtures

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/nyc-warehouse/snapload/internal/files/filesystem"
)

// PickupBase is the pickup time of trip row 0; row i is i minutes later.
var PickupBase = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

// TripSchema is the layout written by Trips. Column labels are mixed case.
var TripSchema = arrow.NewSchema([]arrow.Field{
	{Name: "VendorID", Type: arrow.PrimitiveTypes.Int64},
	{Name: "Trip_Distance", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "PU_Zone", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "tpep_pickup_datetime", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
}, nil)

// Trips encodes n taxi trips as parquet.
func Trips(n int) ([]byte, error) {
	b := array.NewRecordBuilder(memory.NewGoAllocator(), TripSchema)
	defer b.Release()

	for i := 0; i < n; i++ {
		b.Field(0).(*array.Int64Builder).Append(int64(i%3 + 1))
		b.Field(1).(*array.Float64Builder).Append(float64(i) / 10)
		if i%7 == 6 {
			b.Field(2).(*array.StringBuilder).AppendNull()
		} else {
			b.Field(2).(*array.StringBuilder).Append(fmt.Sprintf("Zone %d", i%5))
		}
		ts, err := arrow.TimestampFromTime(PickupBase.Add(time.Duration(i)*time.Minute), arrow.Microsecond)
		if err != nil {
			return nil, err
		}
		b.Field(3).(*array.TimestampBuilder).Append(ts)
	}

	return encode(TripSchema, b)
}

// Zones encodes n rows with a layout that does not fit the trips table.
func Zones(n int) ([]byte, error) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "LocationID", Type: arrow.BinaryTypes.String},
		{Name: "Borough", Type: arrow.BinaryTypes.String},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for i := 0; i < n; i++ {
		b.Field(0).(*array.StringBuilder).Append(fmt.Sprintf("L%03d", i))
		b.Field(1).(*array.StringBuilder).Append("Manhattan")
	}
	return encode(schema, b)
}

func encode(schema *arrow.Schema, b *array.RecordBuilder) ([]byte, error) {
	rec := b.NewRecord()
	defer rec.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	var buf bytes.Buffer
	err := pqarrow.WriteTable(table, &buf, 4096, parquet.NewWriterProperties(),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// SnapshotDir collects named snapshot files and materializes them either in a
// MemoryFileSystem or in a real directory.
//
// Example usage:
//
//	dir := fixtures.NewSnapshotDir().
//	    AddTrips("2024-01.parquet", 100).
//	    AddTrips("2024-02.PARQUET", 50).
//	    AddRaw("notes.txt", []byte("ignored"))
//	path, err := dir.WriteTo(t.TempDir())
type SnapshotDir struct {
	files map[string][]byte
	order []string
	err   error
}

// NewSnapshotDir creates an empty builder.
func NewSnapshotDir() *SnapshotDir {
	return &SnapshotDir{files: make(map[string][]byte)}
}

// AddTrips adds a trips snapshot with n rows.
func (d *SnapshotDir) AddTrips(name string, n int) *SnapshotDir {
	return d.add(name, Trips, n)
}

// AddZones adds a snapshot whose layout does not match the trips table.
func (d *SnapshotDir) AddZones(name string, n int) *SnapshotDir {
	return d.add(name, Zones, n)
}

// AddRaw adds a file with arbitrary content.
func (d *SnapshotDir) AddRaw(name string, content []byte) *SnapshotDir {
	if _, ok := d.files[name]; !ok {
		d.order = append(d.order, name)
	}
	d.files[name] = content
	return d
}

func (d *SnapshotDir) add(name string, gen func(int) ([]byte, error), n int) *SnapshotDir {
	content, err := gen(n)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("fixture %s: %w", name, err)
	}
	return d.AddRaw(name, content)
}

// Names returns the file names in insertion order.
func (d *SnapshotDir) Names() []string {
	return append([]string(nil), d.order...)
}

// BuildFS places every file directly under root in a MemoryFileSystem.
func (d *SnapshotDir) BuildFS(root string) (*filesystem.MemoryFileSystem, error) {
	if d.err != nil {
		return nil, d.err
	}
	mfs := filesystem.NewMemoryFileSystem(root)
	for _, name := range d.order {
		mfs.AddFile(path.Join(root, name), d.files[name])
	}
	return mfs, nil
}

// WriteTo writes every file into dir and returns dir.
func (d *SnapshotDir) WriteTo(dir string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	for _, name := range d.order {
		if err := os.WriteFile(filepath.Join(dir, name), d.files[name], 0o644); err != nil {
			return "", fmt.Errorf("write fixture %s: %w", name, err)
		}
	}
	return dir, nil
}
