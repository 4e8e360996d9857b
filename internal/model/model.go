// Package model holds the semantic types produced by the analyzer and consumed
// by the emitters and the scenario synthesizer.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FieldType is the closed set of semantic field classifications.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeURL     FieldType = "url"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// AllFieldTypes lists every valid FieldType.
var AllFieldTypes = []FieldType{
	TypeString, TypeNumber, TypeBoolean, TypeDate,
	TypeEmail, TypeURL, TypeArray, TypeObject,
}

// Valid reports whether t is one of the eight semantic types.
func (t FieldType) Valid() bool {
	for _, v := range AllFieldTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Field is one named, typed attribute of a model.
type Field struct {
	Name string
	Type FieldType
}

// Fields is an insertion-ordered field map. Setting an existing name keeps
// its original position.
type Fields []Field

// Set adds or replaces the type of name.
func (f *Fields) Set(name string, t FieldType) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Type = t
			return
		}
	}
	*f = append(*f, Field{Name: name, Type: t})
}

// Get returns the type stored for name.
func (f Fields) Get(name string) (FieldType, bool) {
	for _, fd := range f {
		if fd.Name == name {
			return fd.Type, true
		}
	}
	return "", false
}

// Find looks up a field by case-insensitive name.
func (f Fields) Find(name string) (Field, bool) {
	for _, fd := range f {
		if strings.EqualFold(fd.Name, name) {
			return fd, true
		}
	}
	return Field{}, false
}

// Names returns field names in order.
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, fd := range f {
		names[i] = fd.Name
	}
	return names
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}

// MarshalJSON encodes the fields as an object, preserving order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fd := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fd.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(string(fd.Type))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	out := Fields{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("fields: invalid key %v", keyTok)
		}
		var typ string
		if err := dec.Decode(&typ); err != nil {
			return fmt.Errorf("fields: value for %q: %w", key, err)
		}
		out.Set(key, FieldType(typ))
	}
	*f = out
	return nil
}

// DataModel is a named semantic entity inferred from project content.
type DataModel struct {
	Name       string `json:"name"`
	Fields     Fields `json:"fields"`
	OriginFile string `json:"originFile,omitempty"`
}

// IdentityField returns the model's own id field name, or "id" when the
// model has none and the schema synthesizes one.
func (m DataModel) IdentityField() string {
	if f, ok := m.Fields.Find("id"); ok {
		return f.Name
	}
	return "id"
}

// HasIdentity reports whether the model declares an id field itself.
func (m DataModel) HasIdentity() bool {
	_, ok := m.Fields.Find("id")
	return ok
}

// FragmentKind says which extraction path produced a fragment.
type FragmentKind string

const (
	FragmentRecords     FragmentKind = "records"
	FragmentConstant    FragmentKind = "constant"
	FragmentDeclaration FragmentKind = "declaration"
)

// Fragment is a single structural observation from one file, before
// deduplication.
type Fragment struct {
	Name       string       `json:"name"`
	Fields     Fields       `json:"fields"`
	OriginFile string       `json:"originFile,omitempty"`
	Kind       FragmentKind `json:"kind"`
}

// FeatureType classifies a detected application capability.
type FeatureType string

const (
	FeatureAuth FeatureType = "auth"
	FeatureCRUD FeatureType = "crud"
	FeatureAPI  FeatureType = "api"
)

// AppFeature is a capability discovered from directory conventions.
type AppFeature struct {
	Type FeatureType `json:"type"`
	Name string      `json:"name"`
	Path string      `json:"path"`
}

// Analysis is the synthesis result handed to downstream generators.
type Analysis struct {
	Models   []DataModel  `json:"models"`
	Features []AppFeature `json:"features"`
}

// HasFeature reports whether any feature of type t was detected.
func (a Analysis) HasFeature(t FeatureType) bool {
	for _, f := range a.Features {
		if f.Type == t {
			return true
		}
	}
	return false
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
