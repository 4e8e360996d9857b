// Package infer maps raw values and declared type strings onto the closed set
// of semantic field types. Both mappings are pure and total.
package infer

import (
	"regexp"
	"strings"

	"github.com/v0xg/appscout/internal/model"
)

var (
	reISODate   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	reURLScheme = regexp.MustCompile(`^(?i)https?://`)
	reArrayGen  = regexp.MustCompile(`^(?:Readonly)?Array\s*<.*>$`)
)

// FromValue classifies a decoded literal value. Values come from
// encoding/json or the extract literal parser, so numbers may be float64,
// int or int64.
func FromValue(v any) model.FieldType {
	switch val := v.(type) {
	case string:
		return fromString(val)
	case float64, float32, int, int64, int32, uint, uint64:
		return model.TypeNumber
	case bool:
		return model.TypeBoolean
	case []any:
		return model.TypeArray
	case map[string]any:
		return model.TypeObject
	default:
		return model.TypeString
	}
}

func fromString(s string) model.FieldType {
	switch {
	case strings.Contains(s, "@"):
		return model.TypeEmail
	case reISODate.MatchString(s):
		return model.TypeDate
	case reURLScheme.MatchString(s):
		return model.TypeURL
	default:
		return model.TypeString
	}
}

// FromDeclared classifies a declared type annotation such as "string",
// "Date | null", "Tag[]" or "EmailAddress". Unknown names map to string.
func FromDeclared(decl string) model.FieldType {
	t := stripOptional(decl)
	if t == "" {
		return model.TypeString
	}

	if strings.HasSuffix(t, "[]") || reArrayGen.MatchString(t) {
		return model.TypeArray
	}
	if strings.HasPrefix(t, "{") {
		return model.TypeObject
	}

	lower := strings.ToLower(t)
	switch {
	case strings.Contains(lower, "email"):
		return model.TypeEmail
	case strings.Contains(lower, "url"), lower == "uri":
		return model.TypeURL
	}

	switch lower {
	case "string":
		return model.TypeString
	case "number", "bigint", "int", "integer", "float", "double", "decimal":
		return model.TypeNumber
	case "boolean", "bool":
		return model.TypeBoolean
	case "date", "datetime", "timestamp":
		return model.TypeDate
	case "object":
		return model.TypeObject
	}
	if strings.HasPrefix(lower, "record<") || strings.HasPrefix(lower, "map<") {
		return model.TypeObject
	}
	return model.TypeString
}

// stripOptional removes optional markers and nullish union members.
func stripOptional(decl string) string {
	t := strings.TrimSpace(decl)
	t = strings.TrimSuffix(t, ";")
	t = strings.TrimSuffix(t, ",")
	t = strings.TrimPrefix(t, "?")
	t = strings.TrimPrefix(t, ":")
	t = strings.TrimSpace(t)

	if strings.Contains(t, "|") && !strings.HasPrefix(t, "{") {
		var kept []string
		for _, part := range strings.Split(t, "|") {
			p := strings.TrimSpace(part)
			if p == "null" || p == "undefined" || p == "" {
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 1 {
			t = kept[0]
		} else {
			t = strings.Join(kept, " | ")
		}
	}
	if strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")") && !strings.HasSuffix(t, "[]") {
		t = strings.TrimSpace(t[1 : len(t)-1])
	}
	return strings.TrimSuffix(t, "?")
}
