package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/source"
	"github.com/luizvinicius2219/planimport/ports"
)

// Ensure Reader implements the port.
var _ ports.RowSource = (*Reader)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader streams CSV files as a single pseudo-sheet. The delimiter is
// sniffed from the header line; the character encoding is configured,
// never guessed.
type Reader struct {
	encoding string
	log      *slog.Logger
}

// NewReader creates a CSV row source reading files in the given encoding
// ("utf-8", "latin-1" or "windows-1252")
func NewReader(encoding string, log *slog.Logger) *Reader {
	return &Reader{encoding: encoding, log: log}
}

// Probe verifies the file opens; a CSV always has the one pseudo-sheet
func (r *Reader) Probe(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewSourceError(path, err)
	}
	f.Close()
	return []string{source.CSVSheet}, nil
}

// Read streams the file's records through visit with their line numbers
func (r *Reader) Read(ctx context.Context, file source.SourceFile, visit ports.RowVisitor) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return core.NewSourceError(file.Path, err)
	}
	defer f.Close()

	raw := bufio.NewReader(f)
	if bom, err := raw.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		raw.Discard(len(utf8BOM))
	}

	br := bufio.NewReader(decodeReader(raw, r.encoding))
	sep := sniffDelimiter(br)

	cr := csv.NewReader(br)
	cr.Comma = sep
	cr.FieldsPerRecord = -1 // ragged rows are the validator's problem
	cr.LazyQuotes = true

	n := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.NewSourceError(file.Path, err)
		}

		n++
		line, _ := cr.FieldPos(0)
		if err := visit(source.RawRow{File: file.Name, Sheet: source.CSVSheet, Row: line, Cells: cells}); err != nil {
			return err
		}
	}

	r.log.Debug("csv read", "file", file.Name, "delimiter", string(sep), "rows", n)
	return nil
}

// decodeReader wraps the stream with the configured character decoder.
// utf-8 input is validated, so bytes the encoding cannot represent fail
// the file instead of flowing into cells.
func decodeReader(r io.Reader, enc string) io.Reader {
	switch strings.ToLower(enc) {
	case "latin-1", "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder())
	default:
		return transform.NewReader(r, encoding.UTF8Validator)
	}
}

// sniffDelimiter picks the separator by counting candidates outside
// quotes on the header line. Comma wins ties, then semicolon, then tab.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		line = peek[:i]
	}

	counts := make(map[byte]int)
	inQuotes := false
	for _, b := range line {
		switch b {
		case '"':
			inQuotes = !inQuotes
		case ',', ';', '\t':
			if !inQuotes {
				counts[b]++
			}
		}
	}

	best, bestN := byte(','), counts[',']
	for _, c := range []byte{';', '\t'} {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return rune(best)
}
