package schema

import (
	"strings"
	"unicode"
)

// identifier makes name usable as a Prisma field or model identifier. The
// second result reports whether it had to change.
func identifier(name string) (string, bool) {
	var b strings.Builder
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteString("f")
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "field"
	}
	return out, out != name
}

// snake converts camelCase and kebab-case names to snake_case.
func snake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// managedPrisma and managedColumns are the timestamp names the emitters
// add themselves; a model field is dropped only on an exact collision.
var (
	managedPrisma  = map[string]bool{"createdAt": true, "updatedAt": true}
	managedColumns = map[string]bool{"created_at": true, "updated_at": true}
)
