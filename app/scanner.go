package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/ports"
)

// ScannedFile is one discovered source file. Err is set when the file is
// recognized but cannot be read; the runner fails that file and moves on.
type ScannedFile struct {
	File source.SourceFile
	Err  error
}

// Scanner discovers spreadsheet files in the import folder
type Scanner struct {
	sources map[source.FileKind]ports.RowSource
	log     *slog.Logger
}

// NewScanner creates a scanner over the given format readers
func NewScanner(sources map[source.FileKind]ports.RowSource, log *slog.Logger) *Scanner {
	return &Scanner{sources: sources, log: log}
}

// Scan lists the folder's spreadsheet files in lexicographic name order and
// probes each one for its sheet names. Files with unrecognized extensions
// are ignored; recognized files that cannot be opened come back with Err set.
// An unreadable folder is the only scan-level error.
func (s *Scanner) Scan(ctx context.Context, folder string) ([]ScannedFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read source folder %s: %w", folder, err)
	}

	var files []ScannedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		kind, ok := source.KindForPath(name)
		if !ok {
			s.log.Debug("ignoring non-spreadsheet file", "file", name)
			continue
		}

		file := source.SourceFile{
			Path: filepath.Join(folder, name),
			Name: name,
			Kind: kind,
		}
		if info, err := entry.Info(); err == nil {
			file.ModTime = info.ModTime()
		}

		files = append(files, s.probe(ctx, file))
	}

	s.log.Info("folder scanned", "folder", folder, "files", len(files))
	return files, nil
}

// probe fills in the file's sheet names, or records why it never will
func (s *Scanner) probe(ctx context.Context, file source.SourceFile) ScannedFile {
	if file.Kind == source.KindLegacy {
		err := core.NewSourceError(file.Path, errors.New("legacy .xls workbook, save as .xlsx or .csv"))
		return ScannedFile{File: file, Err: err}
	}

	reader, ok := s.sources[file.Kind]
	if !ok {
		err := core.NewSourceError(file.Path, fmt.Errorf("no reader for %s files", file.Kind))
		return ScannedFile{File: file, Err: err}
	}

	sheets, err := reader.Probe(ctx, file.Path)
	if err != nil {
		return ScannedFile{File: file, Err: err}
	}
	file.Sheets = sheets
	return ScannedFile{File: file}
}
