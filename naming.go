package carpet

import "strings"

// NamingStrategy resolves the on-disk column name for a Go struct
// field, the generalization of the teacher's column_mapping.go
// field-name resolution into a pluggable interface (not reproduced
// verbatim — rewritten against this new strategy interface since the
// teacher's version is tied to its own column_mapping_go18.go
// reflection helpers, which were removed along with the rest of the
// legacy column-buffer machinery).
type NamingStrategy interface {
	// ColumnName returns the column name for a Go struct field named
	// fieldName, absent any `alias` struct tag override.
	ColumnName(fieldName string) string
}

// IdentityNaming uses the Go field name unchanged as the column name.
type IdentityNaming struct{}

func (IdentityNaming) ColumnName(fieldName string) string { return fieldName }

// SnakeCaseNaming lower-cases the Go field name and inserts an
// underscore at each uppercase boundary, e.g. "UserID" -> "user_id".
type SnakeCaseNaming struct{}

func (SnakeCaseNaming) ColumnName(fieldName string) string {
	var b strings.Builder
	runes := []rune(fieldName)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || (nextLower && runes[i-1] != '_') {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
