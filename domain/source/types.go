package source

import (
	"path/filepath"
	"strings"
	"time"
)

// CSVSheet is the pseudo-sheet name a CSV file presents as
const CSVSheet = "csv"

// FileKind identifies the on-disk format of a source file
type FileKind string

const (
	KindExcel  FileKind = "excel"  // .xlsx / .xlsm workbooks
	KindLegacy FileKind = "legacy" // .xls, recognized but not readable
	KindCSV    FileKind = "csv"
)

// KindForPath maps a file path to its FileKind by extension.
// The second return is false for files the engine does not recognize at all.
func KindForPath(path string) (FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return KindExcel, true
	case ".xls":
		return KindLegacy, true
	case ".csv":
		return KindCSV, true
	default:
		return "", false
	}
}

// SourceFile describes one spreadsheet discovered in the input folder
type SourceFile struct {
	Path    string   // absolute or folder-relative path on disk
	Name    string   // base name, used for rule matching and reports
	Kind    FileKind
	Sheets  []string // discovered sheet names; a CSV file has the single pseudo-sheet "csv"
	ModTime time.Time
}

// RawRow is one untyped row as read from a sheet, before validation
type RawRow struct {
	File  string   // originating file name
	Sheet string
	Row   int      // 1-based sheet row number, header row included
	Cells []string
}

// IsBlank reports whether every cell is empty or whitespace
func (r RawRow) IsBlank() bool {
	for _, c := range r.Cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
