package extract

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/v0xg/appscout/internal/model"
)

var namePrefixes = []string{"mock", "dummy", "fake", "sample", "test", "seed", "initial", "default", "all"}

var nameSuffixes = []string{"Data", "List", "Items", "Mock"}

// ModelName turns a collection identifier such as "mockUsers", "USER_DATA" or
// "order-items" into a singular, capitalized model name. It returns "" when
// nothing survives normalization.
func ModelName(ident string) string {
	name := camel(ident)

	for _, p := range namePrefixes {
		if len(name) > len(p) && strings.EqualFold(name[:len(p)], p) && isUpperAt(name, len(p)) {
			name = name[len(p):]
			break
		}
	}
	for _, s := range nameSuffixes {
		if len(name) > len(s) && strings.HasSuffix(name, s) {
			name = strings.TrimSuffix(name, s)
			break
		}
	}
	if name == "" {
		return ""
	}
	return model.Capitalize(singular(name))
}

// FileModelName derives a model name from a file's base name, falling back
// to the raw base when normalization leaves nothing ("data.json" -> "Data").
func FileModelName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if n := ModelName(base); n != "" {
		return n
	}
	return model.Capitalize(camel(base))
}

// camel converts snake, kebab and SCREAMING identifiers to lowerCamel and
// leaves camelCase alone.
func camel(s string) string {
	if !strings.ContainsAny(s, "_-. ") {
		if strings.ToUpper(s) == s {
			return strings.ToLower(s)
		}
		return s
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	var b strings.Builder
	for i, p := range parts {
		if strings.ToUpper(p) == p {
			p = strings.ToLower(p)
		}
		if i == 0 {
			b.WriteString(model.LowerFirst(p))
		} else {
			b.WriteString(model.Capitalize(p))
		}
	}
	return b.String()
}

func isUpperAt(s string, i int) bool {
	for _, r := range s[i:] {
		return unicode.IsUpper(r) || unicode.IsDigit(r)
	}
	return false
}

func singular(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "sses"),
		strings.HasSuffix(lower, "uses") && !strings.HasSuffix(lower, "ouses"):
		return s[:len(s)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return s
	case strings.HasSuffix(lower, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}
