// Package normalize canonicalizes dataset column labels before ingestion.
package normalize

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Columns lower-cases every column label of ds in place and returns ds.
// Column order, types and rows are untouched. A nil dataset yields nil.
func Columns(ds *snapload.Dataset) *snapload.Dataset {
	if ds == nil {
		return nil
	}
	lower := cases.Lower(language.Und)
	for i := range ds.Columns {
		ds.Columns[i].Name = lower.String(ds.Columns[i].Name)
	}
	return ds
}
