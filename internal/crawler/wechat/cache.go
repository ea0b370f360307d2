package wechat

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
)

// Cache persists resolved posts as JSON files keyed by the md5 of the post
// URL, so repeated runs do not re-hit the rate-limited host.
type Cache struct {
	dir string
}

// NewCache creates a file cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached post for url, if present and readable.
func (c *Cache) Get(url string) (*Post, bool) {
	data, err := os.ReadFile(c.path(url))
	if err != nil {
		return nil, false
	}
	var post Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, false
	}
	return &post, true
}

// Put stores a resolved post for url.
func (c *Cache) Put(url string, post *Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(url), data, 0o644)
}
