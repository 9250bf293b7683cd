package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

// Observer receives the notifications of a run, in emission order, on the run's goroutine.
// A run emits OnResolved once, then OnEntryStart and OnEntryDone per entry,
// then exactly one of OnDone or OnFailed. A resolve failure emits only OnFailed.
type Observer interface {
	OnResolved(pl *entity.Playlist)
	OnEntryStart(index, total int, entry entity.Entry)
	OnEntryDone(index, total int, outcome *entity.Outcome)
	OnDone(report *entity.Report)
	OnFailed(err error)
}

// EventKind identifies a notification.
type EventKind string

// Notification kinds.
const (
	EventResolved   EventKind = "resolved"
	EventEntryStart EventKind = "entry_start"
	EventEntryDone  EventKind = "entry_done"
	EventDone       EventKind = "done"
	EventFailed     EventKind = "failed"
)

// Event is a notification as a value.
// Message is the operator-facing log line; it is empty for a successful entry.
type Event struct {
	Kind     EventKind
	Message  string
	Index    int
	Total    int
	Playlist *entity.Playlist
	Entry    entity.Entry
	Outcome  *entity.Outcome
	Report   *entity.Report
	Err      error
}

// Terminal reports whether the event ends the run.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(e.Kind)),
		slog.String("message", e.Message),
	}

	if e.Total > 0 {
		attrs = append(attrs, slog.Int("index", e.Index), slog.Int("total", e.Total))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}

	return slog.GroupValue(attrs...)
}

// ObserverFunc adapts a function receiving Events to the Observer interface.
type ObserverFunc func(Event)

// OnResolved emits "Total videos: N".
func (f ObserverFunc) OnResolved(pl *entity.Playlist) {
	f(Event{
		Kind:     EventResolved,
		Message:  fmt.Sprintf(consts.MsgTotalFmt, len(pl.Entries)),
		Total:    len(pl.Entries),
		Playlist: pl,
	})
}

// OnEntryStart emits "Downloading (i/N): title".
func (f ObserverFunc) OnEntryStart(index, total int, entry entity.Entry) {
	f(Event{
		Kind:    EventEntryStart,
		Message: fmt.Sprintf(consts.MsgEntryFmt, index, total, entry.DisplayTitle()),
		Index:   index,
		Total:   total,
		Entry:   entry,
	})
}

// OnEntryDone emits "Error downloading title: reason" for a failed entry.
func (f ObserverFunc) OnEntryDone(index, total int, outcome *entity.Outcome) {
	ev := Event{
		Kind:    EventEntryDone,
		Index:   index,
		Total:   total,
		Entry:   outcome.Entry,
		Outcome: outcome,
	}

	if outcome.Status == entity.OutcomeFailed {
		ev.Message = fmt.Sprintf(consts.MsgEntryErr, outcome.Entry.DisplayTitle(), outcome.Error)
	}

	f(ev)
}

// OnDone emits the success message.
func (f ObserverFunc) OnDone(report *entity.Report) {
	f(Event{
		Kind:    EventDone,
		Message: consts.MsgAllDone,
		Total:   report.Summary.Total,
		Index:   report.Summary.Total,
		Report:  report,
	})
}

// OnFailed emits "Download failed: err".
func (f ObserverFunc) OnFailed(err error) {
	f(Event{
		Kind:    EventFailed,
		Message: fmt.Sprintf(consts.MsgFailedFmt, err),
		Err:     err,
	})
}

// Multi fans notifications out to several observers in order.
func Multi(observers ...Observer) Observer {
	return multi(observers)
}

type multi []Observer

func (m multi) OnResolved(pl *entity.Playlist) {
	for _, o := range m {
		o.OnResolved(pl)
	}
}

func (m multi) OnEntryStart(index, total int, entry entity.Entry) {
	for _, o := range m {
		o.OnEntryStart(index, total, entry)
	}
}

func (m multi) OnEntryDone(index, total int, outcome *entity.Outcome) {
	for _, o := range m {
		o.OnEntryDone(index, total, outcome)
	}
}

func (m multi) OnDone(report *entity.Report) {
	for _, o := range m {
		o.OnDone(report)
	}
}

func (m multi) OnFailed(err error) {
	for _, o := range m {
		o.OnFailed(err)
	}
}

// LogObserver writes every notification to log.
func LogObserver(ctx context.Context, log *slog.Logger) Observer {
	log = log.With(slog.String("package", "batch"))

	return ObserverFunc(func(ev Event) {
		level := slog.LevelInfo
		if ev.Kind == EventFailed || (ev.Outcome != nil && ev.Outcome.Status == entity.OutcomeFailed) {
			level = slog.LevelWarn
		}

		log.Log(ctx, level, "batch event", slog.Any("event", ev))
	})
}

type nopObserver struct{}

func (nopObserver) OnResolved(*entity.Playlist) {}
func (nopObserver) OnEntryStart(int, int, entity.Entry) {}
func (nopObserver) OnEntryDone(int, int, *entity.Outcome) {}
func (nopObserver) OnDone(*entity.Report) {}
func (nopObserver) OnFailed(error) {}
