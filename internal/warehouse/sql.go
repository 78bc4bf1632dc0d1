package warehouse

import (
	"strings"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Dialect quotes identifiers for one SQL engine.
type Dialect struct {
	Open  string
	Close string
}

var (
	// ANSI quotes with double quotes (PostgreSQL, SQLite).
	ANSI = Dialect{Open: `"`, Close: `"`}

	// Bracket quotes with square brackets (SQL Server).
	Bracket = Dialect{Open: "[", Close: "]"}
)

// Ident quotes a single identifier, doubling any embedded closing quote.
func (d Dialect) Ident(name string) string {
	return d.Open + strings.ReplaceAll(name, d.Close, d.Close+d.Close) + d.Close
}

// Table quotes a possibly schema-qualified table name part by part.
func (d Dialect) Table(name string) string {
	schema, table := SplitQualifiedName(name)
	if schema == "" {
		return d.Ident(table)
	}
	return d.Ident(schema) + "." + d.Ident(table)
}

// ColumnList renders quoted column names separated by commas.
func (d Dialect) ColumnList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Ident(n)
	}
	return strings.Join(quoted, ", ")
}

// SplitQualifiedName splits "schema.table". Anything other than exactly one
// dot is treated as an unqualified name.
func SplitQualifiedName(name string) (schema string, table string) {
	name = strings.TrimSpace(name)
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return "", name
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

// MaxStatementParams is the PostgreSQL wire-protocol limit on bind parameters.
const MaxStatementParams = 65535

// ChunkRows splits rows so that no chunk needs more than maxParams bind
// parameters for width columns. Every chunk holds at least one row.
func ChunkRows(rows [][]any, width, maxParams int) [][][]any {
	if len(rows) == 0 {
		return nil
	}
	per := len(rows)
	if width > 0 && maxParams > 0 {
		per = max(maxParams/width, 1)
	}
	chunks := make([][][]any, 0, (len(rows)+per-1)/per)
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

// ColumnNames returns the column labels in order.
func ColumnNames(cols []snapload.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
