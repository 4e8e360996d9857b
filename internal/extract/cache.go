package extract

import (
	"fmt"
	"io/fs"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/v0xg/appscout/internal/model"
)

// Cache memoizes fragments per file version so repeated analyses of a tree
// only re-extract files whose size or modification time changed. Returned
// fragments are shared and must be treated as read-only.
type Cache struct {
	entries *lru.Cache[string, []model.Fragment]
}

// NewCache returns a cache holding up to size files.
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[string, []model.Fragment](size)
	if err != nil {
		return nil, fmt.Errorf("create fragment cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

func cacheKey(path string, info fs.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}

// Get returns the fragments cached for this version of path.
func (c *Cache) Get(path string, info fs.FileInfo) ([]model.Fragment, bool) {
	return c.entries.Get(cacheKey(path, info))
}

// Add records the fragments extracted from this version of path.
func (c *Cache) Add(path string, info fs.FileInfo, frags []model.Fragment) {
	c.entries.Add(cacheKey(path, info), frags)
}

// Len reports the number of cached file versions.
func (c *Cache) Len() int {
	return c.entries.Len()
}
