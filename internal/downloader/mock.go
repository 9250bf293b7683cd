package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/urls"
)

const (
	mockEntries  = 5
	mockFilePerm = 0o644
)

// Mock is an in-process resolver and entry downloader.
// It serves a fixed playlist and fails the entries listed in Fail.
type Mock struct {
	log *slog.Logger

	// Playlist is returned by Resolve; nil yields a generated demo playlist.
	Playlist *entity.Playlist
	// ResolveErr makes Resolve fail.
	ResolveErr error
	// Fail maps entry index to the error its download returns.
	Fail map[int]error
	// Delay simulates the download time per entry.
	Delay time.Duration
	// WriteFiles creates a placeholder file per downloaded entry.
	WriteFiles bool

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one Download invocation.
type MockCall struct {
	Entry entity.Entry
	Opts  Options
}

// NewMock creates a mock that serves pl.
func NewMock(log *slog.Logger, pl *entity.Playlist) *Mock {
	return &Mock{
		log:      log.With(slog.String("package", "downloader"), slog.String("downloader", consts.DownloaderMock)),
		Playlist: pl,
		Fail:     make(map[int]error),
	}
}

// Resolve returns a copy of the configured playlist.
func (m *Mock) Resolve(ctx context.Context, url string) (*entity.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	pl := m.Playlist
	if pl == nil {
		pl = DemoPlaylist(url, mockEntries)
	}

	out := *pl
	out.Entries = append([]entity.Entry(nil), pl.Entries...)

	if out.URL == "" {
		out.URL = url
	}

	m.log.DebugContext(ctx, "playlist resolved", slog.Any("playlist", out))

	return &out, nil
}

// Download simulates a download and fails if entry.Index is listed in Fail.
func (m *Mock) Download(ctx context.Context, entry entity.Entry, opts Options) (*entity.Outcome, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Entry: entry, Opts: opts})
	failErr := m.Fail[entry.Index]
	m.mu.Unlock()

	log := m.log.With(slog.String("func", "Download"), slog.Any("entry", entry))
	started := time.Now()
	outcome := &entity.Outcome{Entry: entry, Status: entity.OutcomeFailed, Attempts: 1}

	if err := simulateDownload(ctx, m.Delay); err != nil {
		outcome.Error = err.Error()
		outcome.Elapsed = time.Since(started)

		return outcome, fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
	}

	outcome.Elapsed = time.Since(started)

	if failErr != nil {
		outcome.Error = failErr.Error()
		log.DebugContext(ctx, "simulated failure", slog.Any("error", failErr))

		return outcome, fmt.Errorf("%w: %w", errs.ErrDownloadFailed, failErr)
	}

	if m.WriteFiles {
		path := filepath.Join(opts.OutputDir, entry.ID+"."+opts.MergeFormat)
		if err := os.WriteFile(path, []byte(entry.URL+"\n"), mockFilePerm); err != nil {
			outcome.Error = err.Error()

			return outcome, fmt.Errorf("%w: %w", errs.ErrDownloadFailed, err)
		}

		outcome.Path = path
	}

	outcome.Status = entity.OutcomeDownloaded

	return outcome, nil
}

// Calls returns the recorded Download invocations in order.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]MockCall(nil), m.calls...)
}

// DemoPlaylist builds a playlist of n fake entries for url.
func DemoPlaylist(url string, n int) *entity.Playlist {
	id := urls.PlaylistID(url)
	if id == "" {
		id = "demo"
	}

	pl := &entity.Playlist{
		ID:      id,
		Title:   "Demo: " + id,
		URL:     url,
		Entries: make([]entity.Entry, 0, n),
	}

	for i := 1; i <= n; i++ {
		entryID := fmt.Sprintf("%s-%02d", id, i)
		pl.Entries = append(pl.Entries, entity.Entry{
			ID:    entryID,
			Title: fmt.Sprintf("Demo video %d", i),
			URL:   youtubeWatchURL + entryID,
			Index: i,
		})
	}

	return pl
}

func simulateDownload(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
