package schema

import (
	"strings"
)

// maxTableName is the MySQL identifier length limit
const maxTableName = 64

// SanitizeTableName converts an arbitrary name into a safe MySQL table name:
// lowercased, every character outside [a-z0-9_] replaced with an underscore,
// prefixed with "t_" when it would start with a digit, and truncated to the
// 64-character identifier limit.
func SanitizeTableName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name = b.String()

	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	if len(name) > maxTableName {
		name = name[:maxTableName]
	}
	return name
}
