package extract

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/appscout/internal/model"
)

func TestJSONExtractor_TopLevelArray(t *testing.T) {
	content := `[
		{"id": 1, "email": "a@b.co", "profile": {"bio": "x"}, "createdAt": "2024-05-01"},
		{"id": 2, "extra": true}
	]`
	got, err := NewJSONExtractor().Extract(context.Background(), "/p/data/users.json", []byte(content))
	require.NoError(t, err)

	want := []model.Fragment{{
		Name:       "User",
		OriginFile: "/p/data/users.json",
		Kind:       model.FragmentRecords,
		Fields: model.Fields{
			{Name: "id", Type: model.TypeNumber},
			{Name: "email", Type: model.TypeEmail},
			{Name: "profile", Type: model.TypeObject},
			{Name: "createdAt", Type: model.TypeDate},
		},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONExtractor_KeyedCollections(t *testing.T) {
	content := `{"products": [{"sku": "a", "price": 2}], "meta": {"v": 1}, "tags": ["x"], "orders": []}`
	got, err := NewJSONExtractor().Extract(context.Background(), "/p/db.json", []byte(content))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Product", got[0].Name)
	assert.Equal(t, []string{"sku", "price"}, got[0].Fields.Names())
}

func TestJSONExtractor_NoRecords(t *testing.T) {
	for _, content := range []string{`[]`, `[1, 2]`, `"text"`, `[{}]`} {
		got, err := NewJSONExtractor().Extract(context.Background(), "/p/x.json", []byte(content))
		require.NoError(t, err, content)
		assert.Empty(t, got, content)
	}
}

func TestJSONExtractor_Invalid(t *testing.T) {
	_, err := NewJSONExtractor().Extract(context.Background(), "/p/broken.json", []byte(`[{"a": 1,}]`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}
