package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/teamcutter/sml/internal/domain"
)

// DiskCache keeps one downloaded artifact per name and version, stored as
// <dir>/<name>/<version>/<original file name>. It holds installer jars,
// modpack archives and Java runtimes between installs.
type DiskCache struct {
	sync.RWMutex
	dir string
}

func New(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	return c.dir
}

// GetPath returns the cached file for name and version, or "" when nothing
// is cached. "latest" picks the lexically greatest cached version.
func (c *DiskCache) GetPath(name, version string) string {
	c.RLock()
	defer c.RUnlock()
	return c.getPath(name, version)
}

func (c *DiskCache) getPath(name, version string) string {
	actual := version
	if version == "latest" {
		entries, _ := os.ReadDir(filepath.Join(c.dir, name))
		var versions []string
		for _, e := range entries {
			if e.IsDir() {
				versions = append(versions, e.Name())
			}
		}
		if len(versions) == 0 {
			return ""
		}
		sort.Strings(versions)
		actual = versions[len(versions)-1]
	}

	entries, err := os.ReadDir(filepath.Join(c.dir, name, actual))
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			return filepath.Join(c.dir, name, actual, e.Name())
		}
	}
	return ""
}

func (c *DiskCache) Has(name, version string) bool {
	c.RLock()
	defer c.RUnlock()
	return c.getPath(name, version) != ""
}

// Store moves src into the cache and returns its new path. Any file
// previously cached under name and version is replaced.
func (c *DiskCache) Store(name, version, src string) (string, error) {
	c.Lock()
	defer c.Unlock()

	destDir := filepath.Join(c.dir, name, version)
	if err := os.RemoveAll(destDir); err != nil {
		return "", err
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	destPath := filepath.Join(destDir, filepath.Base(src))
	if err := os.Rename(src, destPath); err != nil {
		return "", err
	}

	return destPath, nil
}

// Fetch returns the cached file for name and version, downloading url with
// f into the cache first when it is missing.
func (c *DiskCache) Fetch(ctx context.Context, f domain.Fetcher, name, version, url string) (string, error) {
	if path := c.GetPath(name, version); path != "" {
		return path, nil
	}

	staging, err := os.MkdirTemp(c.dir, ".staging-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	tmp := filepath.Join(staging, filepath.Base(url))
	if err := f.Fetch(ctx, url, tmp); err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}

	return c.Store(name, version, tmp)
}

func (c *DiskCache) Size() (int64, error) {
	c.RLock()
	defer c.RUnlock()

	var size int64

	err := filepath.Walk(c.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size, err
}

func (c *DiskCache) Clear() error {
	c.Lock()
	defer c.Unlock()

	return os.RemoveAll(c.dir)
}
