package schema

import (
	"fmt"
	"os"
	"path"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Load reads and validates a schema contract from a TOML file
func Load(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema contract: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a schema contract from TOML bytes
func Parse(data []byte) (*Contract, error) {
	var c Contract
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode schema contract: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Contract) validate() error {
	if len(c.Tables) == 0 {
		return fmt.Errorf("schema contract declares no tables")
	}

	seen := make(map[string]bool, len(c.Tables))
	for i, t := range c.Tables {
		if err := t.validate(); err != nil {
			return fmt.Errorf("table %d (%q): %w", i+1, t.Name, err)
		}
		if seen[t.Name] {
			return fmt.Errorf("table %q declared twice", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func (t *Table) validate() error {
	if !identPattern.MatchString(t.Name) || len(t.Name) > maxTableName {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	if t.FileGlob == "" {
		return fmt.Errorf("file glob is required")
	}
	if _, err := path.Match(t.FileGlob, "probe"); err != nil {
		return fmt.Errorf("bad file glob %q: %w", t.FileGlob, err)
	}
	if t.SheetGlob != "" {
		if _, err := path.Match(t.SheetGlob, "probe"); err != nil {
			return fmt.Errorf("bad sheet glob %q: %w", t.SheetGlob, err)
		}
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("no columns declared")
	}

	cols := make(map[string]bool, len(t.Columns))
	headers := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if !identPattern.MatchString(col.Name) {
			return fmt.Errorf("invalid column name %q", col.Name)
		}
		if cols[col.Name] {
			return fmt.Errorf("column %q declared twice", col.Name)
		}
		cols[col.Name] = true

		if headers[col.HeaderKey()] {
			return fmt.Errorf("header %q bound twice", col.HeaderKey())
		}
		headers[col.HeaderKey()] = true

		switch col.Type {
		case TypeString, TypeInteger, TypeDecimal, TypeDate:
		case "":
			return fmt.Errorf("column %q has no type", col.Name)
		default:
			return fmt.Errorf("column %q has unknown type %q", col.Name, col.Type)
		}
	}

	if len(t.NaturalKey) == 0 {
		return fmt.Errorf("natural_key is required")
	}
	keySeen := make(map[string]bool, len(t.NaturalKey))
	for _, k := range t.NaturalKey {
		if !cols[k] {
			return fmt.Errorf("natural_key column %q is not declared", k)
		}
		if keySeen[k] {
			return fmt.Errorf("natural_key column %q listed twice", k)
		}
		keySeen[k] = true
	}

	if t.SplitBy != "" && !cols[t.SplitBy] {
		return fmt.Errorf("split_by column %q is not declared", t.SplitBy)
	}
	return nil
}
