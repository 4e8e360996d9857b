package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/v0xg/appscout/internal/model"
)

func fields(names ...string) model.Fields {
	var f model.Fields
	for _, n := range names {
		f.Set(n, model.TypeString)
	}
	return f
}

func TestSynthesize_LargestFragmentWins(t *testing.T) {
	got := Synthesize([]model.Fragment{
		{Name: "user", Fields: fields("id"), OriginFile: "a.ts"},
		{Name: "Order", Fields: fields("id", "total"), OriginFile: "b.ts"},
		{Name: "User", Fields: fields("id", "name", "email"), OriginFile: "c.ts"},
		{Name: "User", Fields: fields("x", "y", "z"), OriginFile: "d.ts"},
		{Name: "Order", Fields: fields("status"), OriginFile: "e.ts"},
	})

	want := []model.DataModel{
		{Name: "User", Fields: fields("id", "name", "email"), OriginFile: "c.ts"},
		{Name: "Order", Fields: fields("id", "total"), OriginFile: "b.ts"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Synthesize mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesize_UniqueNames(t *testing.T) {
	got := Synthesize([]model.Fragment{
		{Name: "post", Fields: fields("a")},
		{Name: "Post", Fields: fields("a", "b")},
		{Name: "", Fields: fields("a")},
		{Name: "comment"},
	})
	seen := map[string]bool{}
	for _, m := range got {
		assert.False(t, seen[m.Name], m.Name)
		seen[m.Name] = true
	}
	assert.Equal(t, []string{"Post", "Comment"}, []string{got[0].Name, got[1].Name})
	assert.Equal(t, []string{"a", "b"}, got[0].Fields.Names())
}

func TestSynthesize_DoesNotAliasFragments(t *testing.T) {
	frags := []model.Fragment{{Name: "Tag", Fields: fields("label")}}
	got := Synthesize(frags)
	got[0].Fields[0].Name = "changed"
	assert.Equal(t, "label", frags[0].Fields[0].Name)
}

func TestAnalysis(t *testing.T) {
	a := Analysis(
		[]model.Fragment{{Name: "Order", Fields: fields("status")}},
		[]model.AppFeature{{Type: model.FeatureAuth, Name: "Authentication", Path: "/login"}},
	)
	assert.Len(t, a.Models, 1)
	assert.True(t, a.HasFeature(model.FeatureAuth))
	assert.False(t, a.HasFeature(model.FeatureAPI))
}
