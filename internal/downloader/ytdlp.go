package downloader

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/depmanager"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/maths"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/ptr"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/urls"

	"github.com/lrstanley/go-ytdlp"
)

var (
	maxJSONSize = 64 * 1024 * 1024                                       // 64 MiB, large playlists dump as one line
	bufSize     = 4096                                                   // 4 KiB buffer size
	reFilepath  = regexp.MustCompile(`(?i)^[^\{\[\n].*\.[a-z0-9]{1,6}$`) // file path

	// changing this may break ParseYtdlpStdout().
	defaultPrintAfterMove = "after_move:filepath"

	youtubeWatchURL = "https://www.youtube.com/watch?v="

	typePlaylist = "playlist"
)

// YTdlp resolves playlists and downloads entries with yt-dlp.
type YTdlp struct {
	log     *slog.Logger
	opts    Options
	bins    Binaries
	proxies Proxies
	metrics *observability.Metrics
}

// NewYTdlp creates a yt-dlp backed resolver and entry downloader.
// opts is the resolver's own copy; entry downloads use the options passed to Download.
// bins and proxies may be nil: yt-dlp is then looked up in PATH and run without a proxy.
func NewYTdlp(log *slog.Logger, opts Options, bins Binaries, proxies Proxies, metrics *observability.Metrics) *YTdlp {
	return &YTdlp{
		log:     log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderYTdlp)),
		opts:    opts,
		bins:    bins,
		proxies: proxies,
		metrics: metrics,
	}
}

// Resolve fetches the playlist metadata with --flat-playlist --dump-single-json.
func (d *YTdlp) Resolve(ctx context.Context, url string) (*entity.Playlist, error) {
	log := d.log.With(slog.String("func", "Resolve"), slog.String("url", url))

	command, proxyURL := d.command(ctx, d.opts)
	command = command.FlatPlaylist().DumpSingleJSON()

	res, err := command.Run(ctx, url)
	d.reportProxy(proxyURL, err)

	if err != nil {
		log.ErrorContext(ctx, "ytdlp run", slog.Any("error", err), slog.Any("result", Result{res}))
		if ctxErr := ctx.Err(); ctxErr != nil {
			d.metrics.RecordDownloaderError(consts.DownloaderYTdlp, classifyError(ctxErr))

			return nil, fmt.Errorf("ytdlp resolve: %w", ctxErr)
		}

		d.metrics.RecordDownloaderError(consts.DownloaderYTdlp, classifyError(err))

		return nil, fmt.Errorf("ytdlp resolve: %s", errorReason(res, err))
	}

	pl, err := ParsePlaylistJSON(res.Stdout, url)
	if err != nil {
		return nil, fmt.Errorf("parse playlist: %w", err)
	}

	log.InfoContext(ctx, "playlist resolved", slog.Any("playlist", pl))

	return pl, nil
}

// Download fetches one entry into opts.OutputDir.
func (d *YTdlp) Download(ctx context.Context, entry entity.Entry, opts Options) (*entity.Outcome, error) {
	log := d.log.With(slog.String("func", "Download"), slog.Any("entry", entry))
	started := time.Now()

	outcome := &entity.Outcome{Entry: entry, Status: entity.OutcomeFailed, Attempts: 1}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	progressFn := func(prog ytdlp.ProgressUpdate) {
		log.DebugContext(ctx, "ytdlp progress", slog.Any("progress_update", ProgressUpdate{&prog}))
	}

	command, proxyURL := d.command(ctx, opts)
	command = command.
		Format(opts.Format).
		MergeOutputFormat(opts.MergeFormat).
		NoPlaylist().
		ProgressFunc(defaultProgressFreq, progressFn).
		PrintJSON().Print(defaultPrintAfterMove).
		Output(opts.OutputTemplate())

	if opts.RecodeFormat != "" {
		command = command.RecodeVideo(opts.RecodeFormat)
	}

	res, err := command.Run(ctx, entry.URL)
	d.reportProxy(proxyURL, err)

	outcome.Elapsed = time.Since(started)

	if err != nil {
		reason := errorReason(res, err)
		outcome.Error = reason

		log.ErrorContext(ctx, "ytdlp run", slog.Any("error", err), slog.Any("result", Result{res}))
		d.metrics.RecordDownloaderRequest(consts.DownloaderYTdlp, string(entity.OutcomeFailed))
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		d.metrics.RecordDownloaderError(consts.DownloaderYTdlp, classifyError(err))

		return outcome, fmt.Errorf("%w: %s", errs.ErrDownloadFailed, reason)
	}

	results, err := ParseYtdlpStdout(res.Stdout)
	if err != nil {
		log.WarnContext(ctx, "parse ytdlp stdout", slog.Any("error", err))
	}

	if len(results) > 0 {
		outcome.Path = results[len(results)-1].Filename
	}

	outcome.Status = entity.OutcomeDownloaded
	d.metrics.RecordDownloaderRequest(consts.DownloaderYTdlp, string(entity.OutcomeDownloaded))

	log.InfoContext(ctx, "done", slog.Any("outcome", outcome))

	return outcome, nil
}

// command builds the options shared by resolve and download and returns the proxy in use.
func (d *YTdlp) command(ctx context.Context, opts Options) (*ytdlp.Command, string) {
	command := ytdlp.New()

	if d.bins != nil {
		if path, err := d.bins.Path(depmanager.BinaryYTdlp); err == nil {
			command = command.SetExecutable(path)
		} else {
			d.log.WarnContext(ctx, "yt-dlp path not resolved, using PATH", slog.Any("error", err))
		}

		if path, err := d.bins.Path(depmanager.BinaryFFmpeg); err == nil {
			command = command.FfmpegLocation(path)
		}
	}

	if opts.CacheDir != "" {
		command = command.CacheDir(opts.CacheDir)
	}

	if opts.CookieFile != "" {
		command = command.Cookies(opts.CookieFile)
	}

	var proxyURL string

	if d.proxies != nil {
		next, err := d.proxies.Next()
		switch {
		case err == nil:
			proxyURL = next
			command = command.Proxy(proxyURL)
			d.metrics.RecordProxyRequest(proxyURL)
		case errors.Is(err, errs.ErrNoProxiesAvailable):
			d.log.DebugContext(ctx, "running without proxy", slog.Any("error", err))
		default:
			d.log.WarnContext(ctx, "get proxy", slog.Any("error", err))
		}
	}

	return command, proxyURL
}

func (d *YTdlp) reportProxy(proxyURL string, runErr error) {
	if d.proxies == nil || proxyURL == "" {
		return
	}

	// cancellation says nothing about the proxy
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		d.proxies.MarkFailed(proxyURL)
		d.metrics.RecordProxyFailure(proxyURL)

		return
	}

	if runErr == nil {
		d.proxies.MarkSuccess(proxyURL)
	}
}

// ParsePlaylistJSON decodes the output of --flat-playlist --dump-single-json.
// sourceURL is used when yt-dlp reports no webpage URL or ID.
// A single item without entries fails with errs.ErrNotPlaylist.
func ParsePlaylistJSON(stdout, sourceURL string) (*entity.Playlist, error) {
	var r ResultJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &r); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if r.Type != typePlaylist && r.Entries == nil {
		return nil, fmt.Errorf("%w: got %s %q", errs.ErrNotPlaylist, cmp.Or(r.Type, "item"), r.ID)
	}

	pl := &entity.Playlist{
		ID:      r.ID,
		Title:   r.Title,
		URL:     r.WebpageURL,
		Entries: make([]entity.Entry, 0, len(r.Entries)),
	}

	if pl.URL == "" {
		pl.URL = sourceURL
	}

	if pl.ID == "" {
		pl.ID = urls.PlaylistID(sourceURL)
	}

	for i, e := range r.Entries {
		pl.Entries = append(pl.Entries, entity.Entry{
			ID:       e.ID,
			Title:    ptr.Deref(e.Title),
			URL:      entryURL(e),
			Index:    i + 1,
			Duration: maths.RoundFloat64ToInt(ptr.Deref(e.Duration)),
		})
	}

	return pl, nil
}

// entryURL picks a fetchable locator for a flat playlist entry.
func entryURL(e Entries) string {
	switch {
	case e.WebpageURL != "":
		return e.WebpageURL
	case e.URL != "":
		return e.URL
	case strings.EqualFold(e.IEKey, "youtube") && e.ID != "":
		return youtubeWatchURL + e.ID
	default:
		return e.ID
	}
}

// ParseYtdlpStdout parses the stdout of yt-dlp and returns a slice of ResultJSON with their filenames.
func ParseYtdlpStdout(stdout string) ([]ResultJSON, error) {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, bufSize), maxJSONSize)

	var res []ResultJSON

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r ResultJSON
		if err := json.Unmarshal([]byte(line), &r); err == nil {
			res = append(res, r)

			continue
		}

		if reFilepath.MatchString(line) && len(res) > 0 {
			res[len(res)-1].Filename = line
		}
	}

	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan stdout: %w", err)
	}

	return res, nil
}

// errorReason returns the last "ERROR:" line yt-dlp printed, or err's text.
func errorReason(res *ytdlp.Result, err error) string {
	if res != nil {
		var reason string

		scanner := bufio.NewScanner(strings.NewReader(res.Stderr))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); strings.HasPrefix(line, "ERROR:") {
				reason = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
			}
		}

		if reason != "" {
			return reason
		}
	}

	if err == nil {
		return "unknown error"
	}

	return err.Error()
}
