package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/v0xg/appscout/internal/model"
)

func TestFromValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want model.FieldType
	}{
		{"email", "jane@example.com", model.TypeEmail},
		{"iso date", "2024-03-01T10:00:00Z", model.TypeDate},
		{"plain date", "2024-03-01", model.TypeDate},
		{"url", "https://example.com/a.png", model.TypeURL},
		{"http upper", "HTTP://EXAMPLE.COM", model.TypeURL},
		{"string", "pending", model.TypeString},
		{"empty string", "", model.TypeString},
		{"float", 12.5, model.TypeNumber},
		{"int", 7, model.TypeNumber},
		{"bool", true, model.TypeBoolean},
		{"array", []any{"a"}, model.TypeArray},
		{"object", map[string]any{"a": 1.0}, model.TypeObject},
		{"nil", nil, model.TypeString},
		{"unknown go type", struct{}{}, model.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromValue(tt.in))
		})
	}
}

func TestFromDeclared(t *testing.T) {
	tests := []struct {
		in   string
		want model.FieldType
	}{
		{"string", model.TypeString},
		{" number; ", model.TypeNumber},
		{"bigint", model.TypeNumber},
		{"boolean", model.TypeBoolean},
		{"Date", model.TypeDate},
		{"Date | null", model.TypeDate},
		{"string | undefined", model.TypeString},
		{"string[]", model.TypeArray},
		{"Array<Tag>", model.TypeArray},
		{"ReadonlyArray<number>", model.TypeArray},
		{"(string | number)[]", model.TypeArray},
		{"Email", model.TypeEmail},
		{"EmailAddress?", model.TypeEmail},
		{"URL", model.TypeURL},
		{"ImageUrl | null", model.TypeURL},
		{"Record<string, number>", model.TypeObject},
		{"{ lat: number; lng: number }", model.TypeObject},
		{"object", model.TypeObject},
		{"'active' | 'inactive'", model.TypeString},
		{"SomeUnknownThing", model.TypeString},
		{"", model.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FromDeclared(tt.in))
		})
	}
}

func TestTotality(t *testing.T) {
	inputs := []string{"", "???", "|", "[]", "Array<", "{", "null", "undefined | null"}
	for _, in := range inputs {
		got := FromDeclared(in)
		assert.True(t, got.Valid(), "input %q produced %q", in, got)
	}
}
