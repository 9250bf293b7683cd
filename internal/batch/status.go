package batch

import (
	"sync"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

// Status is a snapshot of the runner's current or last run.
type Status struct {
	Active     bool      `json:"active"`
	URL        string    `json:"url,omitempty"`
	Title      string    `json:"title,omitempty"`
	Index      int       `json:"index"`
	Total      int       `json:"total"`
	Downloaded int       `json:"downloaded"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
	LastError  string    `json:"lastError,omitempty"`
}

// tracker follows runs through their notifications.
type tracker struct {
	mu     sync.RWMutex
	now    func() time.Time
	status Status
	last   *entity.Report
}

func newTracker(now func() time.Time) *tracker {
	return &tracker{now: now}
}

// begin claims the runner for url; it fails when a run is already active.
func (t *tracker) begin(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status.Active {
		return false
	}

	t.status = Status{Active: true, URL: url, StartedAt: t.now()}

	return true
}

func (t *tracker) snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.status
}

func (t *tracker) lastReport() (*entity.Report, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.last, t.last != nil
}

func (t *tracker) OnResolved(pl *entity.Playlist) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Title = pl.Title
	t.status.Total = len(pl.Entries)
}

func (t *tracker) OnEntryStart(index, total int, _ entity.Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Index, t.status.Total = index, total
}

func (t *tracker) OnEntryDone(_, _ int, outcome *entity.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if outcome.Status == entity.OutcomeDownloaded {
		t.status.Downloaded++
	} else {
		t.status.Failed++
	}
}

func (t *tracker) OnDone(report *entity.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Active = false
	t.last = report
}

func (t *tracker) OnFailed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Active = false
	t.status.LastError = err.Error()
}
