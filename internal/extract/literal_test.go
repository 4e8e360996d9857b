package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLiteral_JSON5Shapes(t *testing.T) {
	src := `{
		// line comment
		id: 1_000,
		'name': 'Ada \'L\'',
		"tags": ["a", "b",],
		nested: { ok: true, none: null, gone: undefined },
		/* block */ ratio: -.5e1,
		hex: 0x1F,
		note: ` + "`plain template`" + `,
	}`

	got, err := ParseLiteral(src)
	require.NoError(t, err)

	want := map[string]any{
		"id":     1000.0,
		"name":   "Ada 'L'",
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"ok": true, "none": nil, "gone": nil},
		"ratio":  -5.0,
		"hex":    31.0,
		"note":   "plain template",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseLiteral mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLiteral_RejectsCode(t *testing.T) {
	for _, src := range []string{
		`{ a: foo }`,
		`{ a: foo() }`,
		`{ a: new Date() }`,
		`{ [key]: 1 }`,
		`{ ...rest }`,
		"{ a: `x${y}` }",
		`{ a: 1 } + 1`,
		`[1, 2`,
		`{ a: 'unterminated }`,
		`process.exit(1)`,
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseLiteral(src)
			var syn *SyntaxError
			assert.ErrorAs(t, err, &syn)
		})
	}
}

func TestParseRecord_KeepsOrder(t *testing.T) {
	pairs, err := ParseRecord(`{ zeta: 1, alpha: "a", mid: [1] }`)
	require.NoError(t, err)

	var keys []string
	for _, p := range pairs {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Equal(t, []any{1.0}, pairs[2].Value)

	_, err = ParseRecord(`[1]`)
	assert.Error(t, err)
}
