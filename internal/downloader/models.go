package downloader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/calc"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/shellquote"

	"github.com/lrstanley/go-ytdlp"
)

// Result wraps ytdlp.Result for custom logging.
type Result struct {
	*ytdlp.Result
}

// LogValue implements the slog.LogValuer interface for custom logging of Result.
func (r Result) LogValue() slog.Value {
	if r.Result == nil {
		return slog.GroupValue(slog.String("error", "nil result"))
	}

	var outputLogs strings.Builder
	for _, l := range r.OutputLogs {
		fmt.Fprintf(&outputLogs, "%v\n", l)
	}

	return slog.GroupValue(
		slog.String("command", shellquote.Join(r.Executable, r.Args)),
		slog.Int("exit_code", r.ExitCode),
		slog.String("stderr", r.Stderr),
		slog.String("output_logs", outputLogs.String()),
	)
}

// ProgressUpdate wraps ytdlp.ProgressUpdate for custom logging.
type ProgressUpdate struct {
	*ytdlp.ProgressUpdate
}

// LogValue implements the slog.LogValuer interface for custom logging of ProgressUpdate.
func (p ProgressUpdate) LogValue() slog.Value {
	if p.ProgressUpdate == nil {
		return slog.GroupValue(slog.String("error", "nil progress update"))
	}

	return slog.GroupValue(
		slog.String("filename", p.Filename),
		slog.String("status", fmt.Sprintf("%v", p.Status)),
		slog.Int("downloaded_bytes", p.DownloadedBytes),
		slog.Int("total_bytes", p.TotalBytes),
		slog.Int("fragment_index", p.FragmentIndex),
		slog.Int("fragment_count", p.FragmentCount),
		slog.Int("progress", calc.Progress(p.DownloadedBytes, p.TotalBytes)),
		slog.String("eta", calc.ETA(p.DownloadedBytes, p.TotalBytes, p.Started).String()),
	)
}

// ResultJSON is the part of yt-dlp's info JSON this program reads.
// With --flat-playlist --dump-single-json it describes the playlist.
type ResultJSON struct {
	Type          string    `json:"_type"`
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Channel       string    `json:"channel"`
	Uploader      string    `json:"uploader"`
	Entries       []Entries `json:"entries"`
	WebpageURL    string    `json:"webpage_url"`
	OriginalURL   string    `json:"original_url"`
	Extractor     string    `json:"extractor"`
	ExtractorKey  string    `json:"extractor_key"`
	PlaylistCount int       `json:"playlist_count"`
	Version       Version   `json:"_version"`
	// Filename is filled from the after_move:filepath line, not from JSON.
	Filename string `json:"-"`
}

// Entries represents an entry of a flat playlist.
type Entries struct {
	Type       string   `json:"_type"`
	IEKey      string   `json:"ie_key"`
	ID         string   `json:"id"`
	Title      *string  `json:"title"`
	URL        string   `json:"url"`
	WebpageURL string   `json:"webpage_url"`
	Duration   *float64 `json:"duration"`
	Channel    string   `json:"channel"`
}

// Version represents the version information of yt-dlp.
type Version struct {
	Version        string `json:"version"`
	ReleaseGitHead string `json:"release_git_head"`
	Repository     string `json:"repository"`
}
