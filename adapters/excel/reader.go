package excel

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/ports"
)

// Ensure Reader implements the port.
var _ ports.RowSource = (*Reader)(nil)

// Reader streams .xlsx and .xlsm workbooks sheet by sheet. Rows are
// iterated through excelize's streaming API, so large workbooks never
// load whole into memory.
type Reader struct {
	log *slog.Logger
}

// NewReader creates an Excel row source
func NewReader(log *slog.Logger) *Reader {
	return &Reader{log: log}
}

// Probe lists the workbook's sheet names in workbook order
func (r *Reader) Probe(ctx context.Context, path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, core.NewSourceError(path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Read streams every sheet of the workbook through visit
func (r *Reader) Read(ctx context.Context, file source.SourceFile, visit ports.RowVisitor) error {
	f, err := excelize.OpenFile(file.Path)
	if err != nil {
		return core.NewSourceError(file.Path, err)
	}
	defer f.Close()

	sheets := file.Sheets
	if len(sheets) == 0 {
		sheets = f.GetSheetList()
	}
	for _, sheet := range sheets {
		if err := r.readSheet(ctx, f, file, sheet, visit); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) readSheet(ctx context.Context, f *excelize.File, file source.SourceFile, sheet string, visit ports.RowVisitor) error {
	rows, err := f.Rows(sheet)
	if err != nil {
		return core.NewSourceError(file.Path, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n++
		// raw values: date cells arrive as serial numbers, numerics
		// unformatted, so coercion sees what the workbook stores
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return core.NewSourceError(file.Path, err)
		}
		if err := visit(source.RawRow{File: file.Name, Sheet: sheet, Row: n, Cells: cells}); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return core.NewSourceError(file.Path, err)
	}

	r.log.Debug("sheet read", "file", file.Name, "sheet", sheet, "rows", n)
	return nil
}
