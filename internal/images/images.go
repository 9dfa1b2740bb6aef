// Package images lists the image files available under the public directory.
package images

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/warungdata/katalog/internal/obs"
)

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
}

// List returns the image filenames in dir, in directory enumeration order.
// Entries that are not regular files or whose extension is not a known image
// format are skipped. A missing or unreadable directory yields an empty list
// rather than an error.
func List(dir string) []string {
	f, err := os.Open(dir)
	if err != nil {
		obs.Logger.Warn("image_dir_unavailable", "dir", dir, "error", err)
		return []string{}
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		obs.Logger.Warn("image_dir_read_failed", "dir", dir, "error", err)
		return []string{}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if allowedExt[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	return names
}
