package extract

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTreeSitterExtractor_MatchesTextExtractor(t *testing.T) {
	e := NewTreeSitterExtractor(nil)
	got, err := e.Extract(context.Background(), "/p/src/data/fixture.ts", []byte(tsFixture))
	require.NoError(t, err)

	if diff := cmp.Diff(fixtureFragments(), byName(got)); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeSitterExtractor_JavaScript(t *testing.T) {
	src := `export const sampleProducts = [
  { sku: "A-1", price: 9.5, inStock: true },
];`
	got, err := NewTreeSitterExtractor(nil).Extract(context.Background(), "/p/data/products.js", []byte(src))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Product", got[0].Name)
	require.Equal(t, []string{"sku", "price", "inStock"}, got[0].Fields.Names())
}
