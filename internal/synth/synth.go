// Package synth collapses extracted fragments into one data model per name.
package synth

import "github.com/v0xg/appscout/internal/model"

// Synthesize groups fragments by capitalized name and keeps, for each name,
// the fragment with the most fields. Ties go to the fragment seen first.
// Fields from different fragments are never unioned. Models come back in
// order of first appearance.
func Synthesize(fragments []model.Fragment) []model.DataModel {
	index := make(map[string]int)
	var out []model.DataModel

	for _, f := range fragments {
		name := model.Capitalize(f.Name)
		if name == "" {
			continue
		}
		i, seen := index[name]
		if !seen {
			index[name] = len(out)
			out = append(out, toModel(name, f))
			continue
		}
		if len(f.Fields) > len(out[i].Fields) {
			out[i] = toModel(name, f)
		}
	}
	return out
}

func toModel(name string, f model.Fragment) model.DataModel {
	return model.DataModel{
		Name:       name,
		Fields:     f.Fields.Clone(),
		OriginFile: f.OriginFile,
	}
}

// Analysis bundles models and features into the value handed to generators.
func Analysis(fragments []model.Fragment, features []model.AppFeature) model.Analysis {
	return model.Analysis{Models: Synthesize(fragments), Features: features}
}
