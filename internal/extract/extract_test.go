package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/appscout/internal/model"
)

type stubExtractor struct{ name string }

func (s stubExtractor) Name() string         { return s.name }
func (s stubExtractor) Extensions() []string { return []string{".ts", ".TXT"} }
func (s stubExtractor) Extract(context.Context, string, []byte) ([]model.Fragment, error) {
	return []model.Fragment{{Name: s.name}}, nil
}

func TestRegistry_FirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExtractor{name: "first"})
	r.Register(stubExtractor{name: "second"})

	e, ok := r.For("/p/a.ts")
	require.True(t, ok)
	assert.Equal(t, "first", e.Name())

	e, ok = r.For("/p/notes.txt")
	require.True(t, ok)
	assert.Equal(t, "first", e.Name())

	frags, err := r.Extract(context.Background(), "/p/a.md", nil)
	require.NoError(t, err)
	assert.Nil(t, frags)
}

func TestNewDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry("", nil)
	require.NoError(t, err)
	e, _ := r.For("x.tsx")
	assert.Equal(t, KindText, e.Name())
	e, _ = r.For("x.json")
	assert.Equal(t, "json", e.Name())

	r, err = NewDefaultRegistry(KindTreeSitter, nil)
	require.NoError(t, err)
	e, _ = r.For("x.mjs")
	assert.Equal(t, KindTreeSitter, e.Name())

	_, err = NewDefaultRegistry("regex", nil)
	assert.Error(t, err)
}

func TestRegistry_WrapsExtractorErrors(t *testing.T) {
	r, err := NewDefaultRegistry(KindText, nil)
	require.NoError(t, err)
	_, err = r.Extract(context.Background(), "/p/bad.json", []byte("{"))
	assert.ErrorIs(t, err, ErrInvalidJSON)
	assert.Contains(t, err.Error(), "json extractor")
}

func TestCache_KeyedByVersion(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(p, []byte(`[{"id":1}]`), 0o644))
	info, err := os.Stat(p)
	require.NoError(t, err)

	_, ok := c.Get(p, info)
	assert.False(t, ok)

	c.Add(p, info, []model.Fragment{{Name: "User"}})
	got, ok := c.Get(p, info)
	require.True(t, ok)
	assert.Equal(t, "User", got[0].Name)

	require.NoError(t, os.WriteFile(p, []byte(`[{"id":1,"name":"x"}]`), 0o644))
	info, err = os.Stat(p)
	require.NoError(t, err)
	_, ok = c.Get(p, info)
	assert.False(t, ok, "size change must miss")
	assert.Equal(t, 1, c.Len())

	_, err = NewCache(0)
	assert.Error(t, err)
}
