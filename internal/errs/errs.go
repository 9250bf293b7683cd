// Package errs defines common error variables used across the application.
package errs

import "errors"

// Input errors.
var (
	// ErrEmptyURL indicates that no playlist URL was given.
	ErrEmptyURL = errors.New("empty playlist url")
	// ErrInvalidURL indicates that the playlist URL is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid playlist url")
)

// Batch errors.
var (
	// ErrResolveFailed indicates that the playlist metadata could not be obtained.
	ErrResolveFailed = errors.New("resolve playlist failed")
	// ErrNotPlaylist indicates that the URL resolved to a single item instead of a playlist.
	ErrNotPlaylist = errors.New("url is not a playlist")
	// ErrFolderCreate indicates that the destination folder could not be created.
	ErrFolderCreate = errors.New("create destination folder failed")
	// ErrRunActive indicates that a run was requested while another one is in progress.
	ErrRunActive = errors.New("a download is already running")
)

// Downloader errors.
var (
	// ErrDownloadFailed indicates that the download failed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrDownloaderNotFound indicates that the configured downloader is unknown.
	ErrDownloaderNotFound = errors.New("no suitable downloader found")
	// ErrBinaryNotFound indicates that the required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Proxy errors.
var (
	// ErrNoProxiesAvailable indicates that no proxies are available.
	ErrNoProxiesAvailable = errors.New("no proxies available")
)
