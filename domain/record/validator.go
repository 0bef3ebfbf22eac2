package record

import (
	"fmt"

	"github.com/luizvinicius2219/planimport/domain/core"
	"github.com/luizvinicius2219/planimport/domain/schema"
	"github.com/luizvinicius2219/planimport/domain/source"
)

// RejectError describes why one row was refused, naming the offending column
type RejectError struct {
	Column string
	Reason string
}

func (e *RejectError) Error() string {
	if e.Column == "" {
		return e.Reason
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

func (e *RejectError) Unwrap() error { return core.ErrRowRejected }

func rejectf(column, format string, args ...any) *RejectError {
	return &RejectError{Column: column, Reason: fmt.Sprintf(format, args...)}
}

// HeaderIndex maps normalized sheet headers to cell positions
type HeaderIndex map[string]int

// BuildHeaderIndex indexes a header row. Duplicate headers keep their first
// position; unnamed columns are ignored.
func BuildHeaderIndex(cells []string) HeaderIndex {
	idx := make(HeaderIndex, len(cells))
	for i, h := range cells {
		key := schema.NormalizeHeader(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// MissingRequired lists the headers a sheet must carry for this rule but
// does not: required columns and every natural-key column
func (idx HeaderIndex) MissingRequired(rule *schema.Table) []string {
	var missing []string
	for _, col := range rule.Columns {
		if !col.Required && !rule.IsKeyColumn(col.Name) {
			continue
		}
		if _, ok := idx[col.HeaderKey()]; !ok {
			missing = append(missing, col.HeaderKey())
		}
	}
	return missing
}

// Validator normalizes the raw rows of one sheet under one rule
type Validator struct {
	rule   *schema.Table
	header HeaderIndex
	locale Locale
}

// NewValidator binds a rule to a sheet's header layout
func NewValidator(rule *schema.Table, header HeaderIndex, locale Locale) *Validator {
	return &Validator{rule: rule, header: header, locale: locale}
}

// Normalize turns one raw row into a typed record, or a RejectError.
// The caller is expected to have dropped blank rows already.
func (v *Validator) Normalize(row source.RawRow) (*NormalizedRecord, error) {
	values := make(map[string]Value, len(v.rule.Columns))
	for _, col := range v.rule.Columns {
		raw := ""
		if pos, bound := v.header[col.HeaderKey()]; bound && pos < len(row.Cells) {
			raw = CleanCell(row.Cells[pos])
		}
		if raw == "" {
			if col.Required || v.rule.IsKeyColumn(col.Name) {
				return nil, rejectf(col.Name, "required value is empty")
			}
			values[col.Name] = NullValue()
			continue
		}
		val, err := Coerce(raw, col.Type, v.locale)
		if err != nil {
			return nil, rejectf(col.Name, "expected %s, got %q", col.Type, raw)
		}
		values[col.Name] = val
	}

	// a split rule routes every row, a missing split column counts as blank
	table := v.rule.Name
	if v.rule.SplitBy != "" {
		table = v.rule.TargetTable(values[v.rule.SplitBy].String())
	}

	return &NormalizedRecord{
		Table:  table,
		Values: values,
		File:   row.File,
		Sheet:  row.Sheet,
		Row:    row.Row,
	}, nil
}

// LocaleFor resolves the locale for one rule: run configuration first,
// then contract defaults, then the rule's own overrides
func LocaleFor(base Locale, defaults schema.Defaults, rule *schema.Table) Locale {
	loc := base
	if defaults.DecimalComma != nil {
		loc.DecimalComma = *defaults.DecimalComma
	}
	if defaults.DayFirst != nil {
		loc.DayFirst = *defaults.DayFirst
	}
	if rule.DecimalComma != nil {
		loc.DecimalComma = *rule.DecimalComma
	}
	if rule.DayFirst != nil {
		loc.DayFirst = *rule.DayFirst
	}
	return loc
}
