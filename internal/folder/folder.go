// Package folder derives and creates the per-playlist destination directory.
package folder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

const dirPerm = 0o755

// Sanitize keeps only the letters and digits of title, in their original order.
// Everything else, spaces and path separators included, is dropped.
func Sanitize(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Name returns the folder name for a playlist: the sanitized title,
// else the sanitized ID, else "playlist".
func Name(pl *entity.Playlist) string {
	if pl == nil {
		return consts.DefaultFolderName
	}

	if name := Sanitize(pl.Title); name != "" {
		return name
	}

	if name := Sanitize(pl.ID); name != "" {
		return name
	}

	return consts.DefaultFolderName
}

// Ensure creates root/name if it does not exist and returns its path.
// An existing directory is left untouched.
func Ensure(root, name string) (string, error) {
	dir := filepath.Join(root, name)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
