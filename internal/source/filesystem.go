package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"media-index/internal/logging"
)

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
}

var videoExts = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".m4v":  "video/x-m4v",
	".3gp":  "video/3gpp",
}

// Filesystem enumerates media files under a root directory. External ids are
// derived from the canonical path with FNV-1a, which keeps them stable across
// passes without any state on disk.
type Filesystem struct {
	root string
}

// NewFilesystem creates an enumerator rooted at dir.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{root: dir}
}

// ExternalID derives the stable enumerator id for a canonical path.
func ExternalID(path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return int64(h.Sum64() &^ (1 << 63)) // keep ids non-negative, -1 is reserved
}

// ListModifiedSince walks the root and yields every media file whose
// modification time is at or past the watermark.
func (f *Filesystem) ListModifiedSince(ctx context.Context, watermark int64) ([]Item, error) {
	var items []Item
	err := f.walk(ctx, func(item Item) {
		if item.DateModified >= watermark {
			items = append(items, item)
		}
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListIDs walks the root and yields the external id of every media file.
func (f *Filesystem) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := f.walk(ctx, func(item Item) {
		ids = append(ids, item.ExternalID)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (f *Filesystem) walk(ctx context.Context, emit func(Item)) error {
	err := filepath.Walk(f.root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		item, ok := itemFromFile(path, info)
		if !ok {
			return nil
		}
		emit(item)
		return nil
	})

	if err != nil {
		return fmt.Errorf("walk %s: %w", f.root, err)
	}
	return nil
}

func itemFromFile(path string, info os.FileInfo) (Item, bool) {
	ext := strings.ToLower(filepath.Ext(info.Name()))

	mime, isImage := imageExts[ext]
	if !isImage {
		var isVideo bool
		mime, isVideo = videoExts[ext]
		if !isVideo {
			return Item{}, false
		}
	}

	modified := info.ModTime().UnixMilli()
	return Item{
		ExternalID:   ExternalID(path),
		Path:         path,
		Name:         info.Name(),
		MimeType:     mime,
		IsImage:      isImage,
		SizeBytes:    info.Size(),
		DateAdded:    modified,
		DateModified: modified,
		DateTaken:    modified,
	}, true
}
