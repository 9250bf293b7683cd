// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
)

// Playlist is the metadata of a playlist obtained without downloading media.
type Playlist struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Entries []Entry `json:"entries"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (p Playlist) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", p.ID),
		slog.String("title", p.Title),
		slog.String("url", p.URL),
		slog.Int("entries", len(p.Entries)),
	)
}

// Entry is one item of a playlist.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	// Index is the 1-based position in the playlist.
	Index int `json:"index"`
	// Duration in seconds, 0 if unknown.
	Duration int `json:"duration,omitempty"`
}

// DisplayTitle returns the title, or "Untitled" when it is empty.
func (e Entry) DisplayTitle() string {
	if e.Title == "" {
		return consts.UntitledEntry
	}

	return e.Title
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (e Entry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", e.ID),
		slog.String("title", e.Title),
		slog.String("url", e.URL),
		slog.Int("index", e.Index),
	)
}

// OutcomeStatus is the result of one entry download attempt.
type OutcomeStatus string

const (
	// OutcomeDownloaded indicates that the entry was fetched and written.
	OutcomeDownloaded OutcomeStatus = "downloaded"
	// OutcomeFailed indicates that the entry could not be downloaded.
	OutcomeFailed OutcomeStatus = "failed"
)

// Outcome describes what happened to one entry.
type Outcome struct {
	Entry    Entry         `json:"entry"`
	Status   OutcomeStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
	Path     string        `json:"path,omitempty"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (o Outcome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("index", o.Entry.Index),
		slog.String("title", o.Entry.Title),
		slog.String("status", string(o.Status)),
		slog.String("error", o.Error),
		slog.String("path", o.Path),
		slog.Int("attempts", o.Attempts),
		slog.Duration("elapsed", o.Elapsed),
	)
}

// Summary counts the outcomes of a run.
type Summary struct {
	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Failed     int `json:"failed"`
}

// Report is the record of one completed batch run.
type Report struct {
	RunID      string    `json:"runId"`
	URL        string    `json:"url"`
	PlaylistID string    `json:"playlistId"`
	Title      string    `json:"title"`
	Folder     string    `json:"folder"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcomes   []Outcome `json:"outcomes"`
	Summary    Summary   `json:"summary"`
}

// Add appends an outcome and updates the summary.
func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Summary.Total++

	switch o.Status {
	case OutcomeDownloaded:
		r.Summary.Downloaded++
	case OutcomeFailed:
		r.Summary.Failed++
	}
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.String("url", r.URL),
		slog.String("folder", r.Folder),
		slog.Int("total", r.Summary.Total),
		slog.Int("downloaded", r.Summary.Downloaded),
		slog.Int("failed", r.Summary.Failed),
		slog.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
	)
}
