package record

import (
	"strings"
)

// keySep joins key parts; escapeKeyPart keeps it out of the parts themselves
const keySep = "\x1f"

// NormalizedRecord is one validated row, typed and routed to its
// physical table
type NormalizedRecord struct {
	Table  string           // resolved target table, split routing applied
	Values map[string]Value // by database column name
	File   string
	Sheet  string
	Row    int
}

// Value returns the cell for a column, null when the column is absent
func (r *NormalizedRecord) Value(col string) Value {
	if v, ok := r.Values[col]; ok {
		return v
	}
	return NullValue()
}

// Key builds the natural-key string for this record
func (r *NormalizedRecord) Key(keyCols []string) string {
	return KeyString(keyCols, r.Values)
}

// KeyString builds a canonical key from the given columns' values.
// Two rows with the same key string identify the same stored row;
// separator bytes inside values are escaped so distinct keys never collide.
func KeyString(keyCols []string, values map[string]Value) string {
	parts := make([]string, len(keyCols))
	for i, col := range keyCols {
		parts[i] = escapeKeyPart(values[col].String())
	}
	return strings.Join(parts, keySep)
}

func escapeKeyPart(s string) string {
	if !strings.ContainsAny(s, "\\"+keySep) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, keySep, `\_`)
}
