package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func rels(t *testing.T, root string, abs []string) []string {
	t.Helper()
	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	out := make([]string, 0, len(abs))
	for _, p := range abs {
		rel, err := filepath.Rel(realRoot, p)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestScan_Heuristics(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/data/users.ts", "")
	write(t, root, "src/lib/mockOrders.js", "")
	write(t, root, "fixtures/products.json", "[]")
	write(t, root, "test-data/cart.json", "[]")
	write(t, root, "src/types/index.ts", "")
	write(t, root, "global.d.ts", "")
	write(t, root, "app/dummy-posts.tsx", "")
	write(t, root, "src/components/Button.tsx", "")
	write(t, root, "README.md", "")
	write(t, root, "src/data/notes.md", "")

	got, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app/dummy-posts.tsx",
		"fixtures/products.json",
		"global.d.ts",
		"src/data/users.ts",
		"src/lib/mockOrders.js",
		"src/types/index.ts",
		"test-data/cart.json",
	}, rels(t, root, got))
}

func TestScan_SkipsHiddenAndDependencyDirs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "data/ok.json", "[]")
	write(t, root, ".git/data/objects.json", "[]")
	write(t, root, ".next/server/mock.js", "")
	write(t, root, "node_modules/faker/data/names.js", "")
	write(t, root, "vendor/mock.ts", "")
	write(t, root, "dist/data.js", "")
	write(t, root, "extra/mock.ts", "")

	got, err := Scan(context.Background(), root, Options{IgnoreDirs: []string{"extra"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"data/ok.json"}, rels(t, root, got))
}

func TestScan_IncludeGlobs(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/store/catalog.ts", "")

	got, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Scan(context.Background(), root, Options{Include: []string{"src/store/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/store/catalog.ts"}, rels(t, root, got))
}

func TestScan_NeverEscapesRootAndNoDuplicates(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"mock/a.ts", "mock/data/b.ts", "data/mock/c.json", "x/y/fixtures/d.js"} {
		write(t, root, rel, "")
	}

	got, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, p := range got {
		assert.True(t, strings.HasPrefix(p, realRoot+string(filepath.Separator)), p)
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
	}
	assert.Len(t, got, 4)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	write(t, root, "data/a.json", "[]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("src/mocks/users.ts"))
	assert.True(t, Match("lib/data/index.js"))
	assert.False(t, Match("src/pages/index.tsx"))
	assert.False(t, Match("data/readme.md"))
}
