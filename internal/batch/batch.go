// Package batch runs a playlist download: resolve once, create the destination
// folder, then download every entry in order, continuing past per-entry failures.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/downloader"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/folder"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/gen"
)

// Runner executes playlist runs. Runs are sequential and blocking; a Runner
// can be reused for several runs but only executes one at a time.
type Runner struct {
	log      *slog.Logger
	resolver downloader.Resolver
	dl       downloader.EntryDownloader
	opts     downloader.Options
	retries  int
	metrics  *observability.Metrics
	now      func() time.Time
	status   *tracker
}

// New creates a Runner. opts.OutputDir is the root the playlist folders are created in.
// retries is the number of extra attempts for a failed entry.
func New(
	log *slog.Logger,
	resolver downloader.Resolver,
	dl downloader.EntryDownloader,
	opts downloader.Options,
	retries int,
	metrics *observability.Metrics,
) *Runner {
	return &Runner{
		log:      log.With(slog.String("package", "batch")),
		resolver: resolver,
		dl:       dl,
		opts:     opts,
		retries:  max(retries, 0),
		metrics:  metrics,
		now:      time.Now,
		status:   newTracker(time.Now),
	}
}

// Status returns a snapshot of the current or last run.
func (r *Runner) Status() Status {
	return r.status.snapshot()
}

// LastReport returns the report of the last run that reached the end of its playlist.
func (r *Runner) LastReport() (*entity.Report, bool) {
	return r.status.lastReport()
}

// Run downloads the playlist at url, notifying obs along the way.
// It returns an error only when the run could not go through the playlist:
// resolution failure, folder creation failure or cancellation.
// Per-entry failures are recorded in the report.
// A Runner executes one run at a time; a concurrent call fails with errs.ErrRunActive.
func (r *Runner) Run(ctx context.Context, url string, obs Observer) (*entity.Report, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	url = strings.TrimSpace(url)

	if !r.status.begin(url) {
		r.log.WarnContext(ctx, "run rejected", slog.String("url", url), slog.Any("error", errs.ErrRunActive))
		obs.OnFailed(errs.ErrRunActive)

		return nil, errs.ErrRunActive
	}

	obs = Multi(r.status, obs)

	done := r.metrics.RunTimer()
	defer done()

	if url == "" {
		return nil, r.fail(ctx, obs, "input", errs.ErrEmptyURL)
	}

	log := r.log.With(slog.String("url", url))
	started := r.now()

	pl, err := r.safeResolve(ctx, url)
	if err != nil {
		return nil, r.fail(ctx, obs, "resolve", fmt.Errorf("%w: %w", errs.ErrResolveFailed, err))
	}

	dir, err := folder.Ensure(r.opts.OutputDir, folder.Name(pl))
	if err != nil {
		return nil, r.fail(ctx, obs, "folder", fmt.Errorf("%w: %w", errs.ErrFolderCreate, err))
	}

	report := &entity.Report{
		RunID:      gen.UUIDv5(url, started.Format(time.RFC3339Nano)),
		URL:        url,
		PlaylistID: pl.ID,
		Title:      pl.Title,
		Folder:     dir,
		StartedAt:  started,
		Outcomes:   make([]entity.Outcome, 0, len(pl.Entries)),
	}

	log.InfoContext(ctx, "playlist resolved", slog.Any("playlist", pl), slog.String("folder", dir))
	obs.OnResolved(pl)

	entryOpts := r.opts.WithOutputDir(dir)
	total := len(pl.Entries)

	for i, entry := range pl.Entries {
		if err := ctx.Err(); err != nil {
			r.finish(ctx, report)

			return report, r.fail(ctx, obs, "canceled", fmt.Errorf("stopped after %d of %d: %w", i, total, err))
		}

		index := i + 1
		obs.OnEntryStart(index, total, entry)

		outcome := r.download(ctx, entry, entryOpts)
		report.Add(*outcome)
		r.metrics.RecordEntry(string(outcome.Status), outcome.Elapsed)

		if outcome.Status == entity.OutcomeFailed {
			log.WarnContext(ctx, "entry failed", slog.Any("outcome", outcome))
		}

		obs.OnEntryDone(index, total, outcome)
	}

	r.finish(ctx, report)
	r.metrics.RecordRunCompleted()

	log.InfoContext(ctx, "run finished", slog.Any("report", report))
	obs.OnDone(report)

	return report, nil
}

// Start runs Run on a new goroutine and streams its notifications.
// The channel is closed after the terminal event; the caller must drain it.
func (r *Runner) Start(ctx context.Context, url string) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		_, _ = r.Run(ctx, url, ObserverFunc(func(ev Event) { events <- ev }))
	}()

	return events
}

// download attempts an entry up to 1+retries times and always returns an outcome.
func (r *Runner) download(ctx context.Context, entry entity.Entry, opts downloader.Options) *entity.Outcome {
	var (
		outcome *entity.Outcome
		err     error
		elapsed time.Duration
	)

	attempts := r.retries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		started := r.now()
		outcome, err = r.safeDownload(ctx, entry, opts)
		elapsed += r.now().Sub(started)

		if outcome == nil {
			outcome = &entity.Outcome{Entry: entry}
		}

		outcome.Attempts = attempt
		outcome.Elapsed = elapsed

		if err == nil {
			outcome.Status = entity.OutcomeDownloaded

			return outcome
		}

		if ctx.Err() != nil || attempt == attempts {
			break
		}

		r.log.InfoContext(ctx, "retrying entry",
			slog.Any("entry", entry),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
	}

	outcome.Status = entity.OutcomeFailed
	if outcome.Error == "" {
		outcome.Error = strings.TrimPrefix(err.Error(), errs.ErrDownloadFailed.Error()+": ")
	}

	return outcome
}

// safeResolve turns a panicking resolver into a resolution error.
func (r *Runner) safeResolve(ctx context.Context, url string) (pl *entity.Playlist, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(ctx, "resolver panicked", slog.String("url", url), slog.Any("panic", p))

			pl, err = nil, fmt.Errorf("resolver panic: %v", p)
		}
	}()

	return r.resolver.Resolve(ctx, url)
}

// safeDownload turns a panicking downloader into a failed entry.
func (r *Runner) safeDownload(
	ctx context.Context,
	entry entity.Entry,
	opts downloader.Options,
) (outcome *entity.Outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(ctx, "downloader panicked", slog.Any("entry", entry), slog.Any("panic", p))

			outcome, err = nil, fmt.Errorf("%w: %v", errs.ErrDownloadFailed, p)
		}
	}()

	return r.dl.Download(ctx, entry, opts)
}

// finish stamps the report and writes it next to the downloads; failures are only logged.
func (r *Runner) finish(ctx context.Context, report *entity.Report) {
	report.FinishedAt = r.now()

	path, err := WriteReport(report.Folder, report)
	if err != nil {
		r.log.WarnContext(ctx, "write report", slog.Any("error", err))

		return
	}

	r.log.DebugContext(ctx, "report written", slog.String("path", path))
}

func (r *Runner) fail(ctx context.Context, obs Observer, reason string, err error) error {
	if errors.Is(err, context.Canceled) {
		reason = "canceled"
	}

	r.log.ErrorContext(ctx, "run failed", slog.String("reason", reason), slog.Any("error", err))
	r.metrics.RecordRunFailed(reason)
	obs.OnFailed(err)

	return err
}
