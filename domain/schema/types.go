package schema

import (
	"path"
	"strings"
)

// ColumnType is the declared value type of a mapped column
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeInteger ColumnType = "integer"
	TypeDecimal ColumnType = "decimal"
	TypeDate    ColumnType = "date"
)

// Column maps one spreadsheet header to one database column
type Column struct {
	Name     string     `toml:"name"`
	Header   string     `toml:"header"` // spreadsheet header; defaults to Name
	Type     ColumnType `toml:"type"`
	Required bool       `toml:"required"`
}

// HeaderKey returns the normalized header this column binds to
func (c Column) HeaderKey() string {
	h := c.Header
	if h == "" {
		h = c.Name
	}
	return NormalizeHeader(h)
}

// Table is one ingestion rule: which files and sheets feed which table,
// under which natural key
type Table struct {
	Name         string   `toml:"name"`
	FileGlob     string   `toml:"file"`
	SheetGlob    string   `toml:"sheet"` // defaults to "*"
	NaturalKey   []string `toml:"natural_key"`
	SplitBy      string   `toml:"split_by"`
	DecimalComma *bool    `toml:"decimal_comma"` // overrides the run default when set
	DayFirst     *bool    `toml:"day_first"`
	Columns      []Column `toml:"column"`
}

// ColumnNames returns the database column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the declared column with the given name
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsKeyColumn reports whether name is part of the natural key
func (t *Table) IsKeyColumn(name string) bool {
	for _, k := range t.NaturalKey {
		if k == name {
			return true
		}
	}
	return false
}

// TargetTable resolves the physical table for a row. Rules without split_by
// always load into Name; split rules route each row by its split value.
func (t *Table) TargetTable(splitValue string) string {
	if t.SplitBy == "" {
		return t.Name
	}
	v := strings.TrimSpace(splitValue)
	if v == "" {
		v = "sem_codigo"
	}
	return SanitizeTableName(t.Name + "_" + v)
}

// Contract is the full schema contract for a run
type Contract struct {
	Defaults Defaults `toml:"defaults"`
	Tables   []*Table `toml:"table"`
}

// Defaults hold contract-wide locale settings, overridable per table
type Defaults struct {
	DecimalComma *bool `toml:"decimal_comma"`
	DayFirst     *bool `toml:"day_first"`
}

// Match returns the first rule whose file and sheet globs match, or nil.
// Matching is case-insensitive; rule order in the contract decides ties.
func (c *Contract) Match(fileName, sheet string) *Table {
	for _, t := range c.Tables {
		if globMatch(t.FileGlob, fileName) && globMatch(t.SheetGlob, sheet) {
			return t
		}
	}
	return nil
}

// MatchesFile reports whether any rule could match the file at all,
// regardless of sheet
func (c *Contract) MatchesFile(fileName string) bool {
	for _, t := range c.Tables {
		if globMatch(t.FileGlob, fileName) {
			return true
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	if pattern == "" {
		pattern = "*"
	}
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(name))
	return err == nil && ok
}

// NormalizeHeader canonicalizes a spreadsheet header for matching:
// trimmed and lowercased
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
