package briefgen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache is a flat file cache for brief artifacts, keyed by month.
// Artifacts are small and regenerated whenever the table changes, so
// there is no expiry; Invalidate is called after each recompute.
type Cache struct {
	dir string
}

func NewCache(dir string) *Cache {
	os.MkdirAll(dir, 0755)
	return &Cache{dir: dir}
}

func (c *Cache) path(name, ext string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.%s", sanitize(name), ext))
}

// Get returns the cached artifact, or ok=false when absent.
func (c *Cache) Get(name, ext string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(name, ext))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) Set(name, ext string, data []byte) error {
	tmp := c.path(name, ext) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(name, ext))
}

// Invalidate removes every cached artifact for the given month.
func (c *Cache) Invalidate(name string) {
	matches, err := filepath.Glob(filepath.Join(c.dir, sanitize(name)+".*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		os.Remove(m)
	}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
