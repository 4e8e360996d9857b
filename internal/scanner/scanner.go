// Package scanner shortlists data-like files in a project tree using path and
// name heuristics.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// DefaultIgnoreDirs are dependency and build caches that are never walked.
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", "bower_components", "dist", "build", "out", "coverage",
}

// DefaultPatterns are the doublestar globs, matched against the lower-cased
// repo-relative path, that mark a file as data-like.
var DefaultPatterns = []string{
	"**/*mock*",
	"**/*mock*/**",
	"**/*data*",
	"**/*data*/**",
	"**/*fixture*",
	"**/*fixture*/**",
	"**/*dummy*",
	"**/*dummy*/**",
	"**/*seed*",
	"**/*sample*",
	"**/test-data/**",
	"lib/data/**",
	"src/data/**",
	"src/lib/data/**",
	"data/**",
	"types/**",
	"src/types/**",
	"models/**",
	"src/models/**",
	"**/interfaces/**",
	"**/*.d.ts",
}

// Extensions are the file types the extractors understand.
var Extensions = []string{".json", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}

// Options configures a scan.
type Options struct {
	// Patterns replaces DefaultPatterns when non-empty
	Patterns []string
	// Include adds globs on top of the active patterns
	Include []string
	// IgnoreDirs adds directory names to DefaultIgnoreDirs
	IgnoreDirs []string
	Logger     *zap.Logger
}

// FileVisit carries per-entry metadata to an optional callback.
type FileVisit struct {
	// Repo-relative path using forward slashes (e.g., "src/data/users.ts").
	Path string
	// Absolute filesystem path.
	AbsPath string
	// Lowercased extension
	Ext string
}

// Scan walks root and returns the sorted, deduplicated absolute paths of
// shortlisted files. Hidden directories and dependency caches are skipped,
// unreadable entries are dropped.
func Scan(ctx context.Context, root string, opts Options) ([]string, error) {
	var out []string
	err := Walk(ctx, root, opts, func(fv FileVisit) {
		out = append(out, fv.AbsPath)
	})
	if err != nil {
		return nil, err
	}
	return dedupe(out), nil
}

// Walk visits every shortlisted file under root in lexical order.
func Walk(ctx context.Context, root string, opts Options, cb func(FileVisit)) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	patterns = append(append([]string{}, patterns...), opts.Include...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			logger.Warn("Ignoring invalid scan pattern", zap.String("pattern", p))
		}
	}

	ignore := make(map[string]struct{}, len(DefaultIgnoreDirs)+len(opts.IgnoreDirs))
	for _, d := range DefaultIgnoreDirs {
		ignore[d] = struct{}{}
	}
	for _, d := range opts.IgnoreDirs {
		ignore[d] = struct{}{}
	}

	return filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Debug("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := ignore[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !supported(ext) {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !matchAny(patterns, strings.ToLower(rel)) {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			logger.Debug("Dropping unreadable file", zap.String("path", rel), zap.Error(openErr))
			return nil
		}
		_ = f.Close()

		cb(FileVisit{Path: rel, AbsPath: path, Ext: ext})
		return nil
	})
}

// Match reports whether a repo-relative path matches the default heuristics.
func Match(rel string) bool {
	return supported(strings.ToLower(filepath.Ext(rel))) &&
		matchAny(DefaultPatterns, strings.ToLower(filepath.ToSlash(rel)))
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func supported(ext string) bool {
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func dedupe(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for i, p := range paths {
		if i > 0 && p == paths[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
