package texture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/voxel/internal/cache"
)

// DefaultCacheSize is the number of decoded images DefaultImageCache keeps.
const DefaultCacheSize = 64

// DefaultImageCache backs LoadCached.
var DefaultImageCache = NewImageCache(DefaultCacheSize)

// fileKey identifies one version of a file on disk.
type fileKey struct {
	path    string
	size    int64
	modTime int64
}

// ImageCache keeps decoded layer images keyed by path, size and
// modification time, so a file that changes on disk is decoded again.
// It is safe for concurrent use.
type ImageCache struct {
	images *cache.Cache[fileKey, image.Image]
}

// NewImageCache returns a cache holding at most capacity images.
func NewImageCache(capacity int) *ImageCache {
	return &ImageCache{images: cache.New[fileKey, image.Image](capacity)}
}

// Load returns the decoded image at path, decoding it only when the file
// is not cached or has changed.
func (c *ImageCache) Load(path string) (image.Image, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("texture: resolve path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("texture: open file: %w", err)
	}
	key := fileKey{path: abs, size: fi.Size(), modTime: fi.ModTime().UnixNano()}
	return c.images.GetOrLoad(key, func() (image.Image, error) {
		return Load(abs)
	})
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int { return c.images.Len() }

// Hits returns how many loads were served from the cache.
func (c *ImageCache) Hits() uint64 { return c.images.Stats().Hits }

// LoadCached loads path through DefaultImageCache.
func LoadCached(path string) (image.Image, error) {
	return DefaultImageCache.Load(path)
}
