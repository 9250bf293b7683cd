// Package downloader wraps the external media downloader behind two capabilities:
// resolving playlist metadata and downloading a single entry.
package downloader

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/config"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/depmanager"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

const (
	defaultProgressFreq = 500 * time.Millisecond
)

// Resolver obtains playlist metadata without downloading any media.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*entity.Playlist, error)
}

// EntryDownloader fetches one entry into the location described by opts.
// A non-nil error means the entry failed; the outcome is still populated.
type EntryDownloader interface {
	Download(ctx context.Context, entry entity.Entry, opts Options) (*entity.Outcome, error)
}

// Binaries locates external executables.
type Binaries interface {
	Path(name depmanager.BinaryName) (string, error)
}

// Proxies hands out proxies and receives feedback about them.
type Proxies interface {
	Next() (string, error)
	MarkFailed(proxyURL string)
	MarkSuccess(proxyURL string)
}

// Options is the immutable download configuration.
// It is passed by value; With* methods return modified copies.
type Options struct {
	Format           string
	MergeFormat      string
	RecodeFormat     string
	FilenameTemplate string
	OutputDir        string
	CacheDir         string
	CookieFile       string
	Timeout          time.Duration
}

// NewOptions builds options from configuration. OutputDir starts at the root dir.
func NewOptions(dl config.Download, dir config.Dir) Options {
	return Options{
		Format:           dl.Format,
		MergeFormat:      dl.MergeFormat,
		RecodeFormat:     dl.RecodeFormat,
		FilenameTemplate: dl.FilenameTemplate,
		OutputDir:        dir.Root,
		CacheDir:         dir.Cache,
		CookieFile:       dir.CookieFile,
		Timeout:          dl.EntryTimeout,
	}
}

// WithOutputDir returns a copy of o writing into dir.
func (o Options) WithOutputDir(dir string) Options {
	o.OutputDir = dir

	return o
}

// OutputTemplate returns the yt-dlp output template rooted at OutputDir.
func (o Options) OutputTemplate() string {
	if o.OutputDir == "" {
		return o.FilenameTemplate
	}

	return filepath.Join(o.OutputDir, o.FilenameTemplate)
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "process"
	}
}
