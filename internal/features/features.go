// Package features detects application capabilities from directory
// conventions, independently of the data models.
package features

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/v0xg/appscout/internal/config"
	"github.com/v0xg/appscout/internal/model"
)

var sourceExts = map[string]bool{".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".mts": true}

// Detector scans one project root.
type Detector struct {
	conv   config.ConventionsConfig
	logger *zap.Logger
}

// NewDetector creates a detector for the given conventions.
func NewDetector(conv config.ConventionsConfig, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{conv: conv, logger: logger}
}

// Detect returns at most one auth feature, then one crud feature per
// immediate subdirectory of each pages root, then one api feature per
// endpoint under each api root. Missing roots are skipped.
func (d *Detector) Detect(root string) ([]model.AppFeature, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	var out []model.AppFeature
	if d.hasAuth(root) {
		out = append(out, model.AppFeature{Type: model.FeatureAuth, Name: "Authentication", Path: "/login"})
	}
	out = append(out, d.crud(root)...)
	out = append(out, d.api(root)...)

	d.logger.Debug("Detected features", zap.Int("count", len(out)))
	return out, nil
}

func (d *Detector) hasAuth(root string) bool {
	for _, p := range d.conv.AuthPaths {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(p))); err == nil {
			d.logger.Debug("Auth convention found", zap.String("path", p))
			return true
		}
	}
	return false
}

func (d *Detector) crud(root string) []model.AppFeature {
	var out []model.AppFeature
	for _, pr := range d.conv.PagesRoots {
		for _, e := range d.readDir(root, pr) {
			name := e.Name()
			if !e.IsDir() || hidden(name) || name == "api" {
				continue
			}
			out = append(out, model.AppFeature{
				Type: model.FeatureCRUD,
				Name: model.Capitalize(name),
				Path: "/" + name,
			})
		}
	}
	return out
}

func (d *Detector) api(root string) []model.AppFeature {
	var out []model.AppFeature
	for _, ar := range d.conv.APIRoots {
		for _, e := range d.readDir(root, ar) {
			name := e.Name()
			if hidden(name) {
				continue
			}
			base := ""
			switch {
			case e.IsDir():
				// app router: app/api/<name>/route.ts
				if hasRouteFile(filepath.Join(root, filepath.FromSlash(ar), name)) {
					base = name
				}
			case sourceExts[strings.ToLower(filepath.Ext(name))]:
				base = strings.TrimSuffix(name, filepath.Ext(name))
			}
			if base == "" {
				continue
			}
			out = append(out, model.AppFeature{
				Type: model.FeatureAPI,
				Name: model.Capitalize(base),
				Path: "/api/" + base,
			})
		}
	}
	return out
}

func (d *Detector) readDir(root, rel string) []os.DirEntry {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Debug("Skipping convention root", zap.String("root", rel), zap.Error(err))
		}
		return nil
	}
	return entries
}

func hasRouteFile(dir string) bool {
	for ext := range sourceExts {
		if _, err := os.Stat(filepath.Join(dir, "route"+ext)); err == nil {
			return true
		}
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
