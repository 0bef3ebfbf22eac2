package ports

import (
	"context"

	"github.com/luizvinicius2219/planimport/domain/source"
)

// RowVisitor receives each raw row of a file in order
type RowVisitor func(row source.RawRow) error

// RowSource reads one spreadsheet format. Implementations stream rows
// lazily; a whole workbook is never held in memory.
type RowSource interface {
	// Probe lists the sheet names of a file without reading row data
	Probe(ctx context.Context, path string) ([]string, error)

	// Read streams every sheet's rows in sheet order through visit.
	// Row numbers are the file's own (spreadsheet row, CSV line), so the
	// first row of a sheet need not be Row 1. A visit error stops the
	// stream and is returned as-is; reading again restarts from the top.
	Read(ctx context.Context, file source.SourceFile, visit RowVisitor) error
}
