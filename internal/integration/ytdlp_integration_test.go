//go:build integration
// +build integration

package integration_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
)

func TestYTdlpResolve(t *testing.T) {
	fx := newYTdlpIntegrationFixture(t, "success")

	pl, err := fx.ytdlp.Resolve(t.Context(), playlistURL)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if pl.ID != "PLfake" || pl.Title != "Fake: Mix!" {
		t.Fatalf("unexpected playlist: %+v", pl)
	}

	if len(pl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(pl.Entries))
	}

	first := pl.Entries[0]
	if first.URL != "https://example.com/watch?v=vid1" || first.Index != 1 || first.Duration != 61 {
		t.Fatalf("unexpected first entry: %+v", first)
	}
}

func TestRunDownloadsPlaylist(t *testing.T) {
	fx := newYTdlpIntegrationFixture(t, "success")

	report, err := fx.runner.Run(t.Context(), playlistURL, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	folder := filepath.Join(fx.root, "FakeMix")
	if report.Folder != folder {
		t.Fatalf("expected folder %q, got %q", folder, report.Folder)
	}

	if want := (entity.Summary{Total: 3, Downloaded: 3}); report.Summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, report.Summary)
	}

	for i, outcome := range report.Outcomes {
		want := filepath.Join(folder, outcome.Entry.ID+".mp4")
		if outcome.Path != want {
			t.Errorf("outcome %d: expected path %q, got %q", i, want, outcome.Path)
		}

		if _, err := os.Stat(want); err != nil {
			t.Errorf("outcome %d: stat downloaded file: %v", i, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(folder, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var stored entity.Report
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("decode report: %v", err)
	}

	if stored.RunID != report.RunID || len(stored.Outcomes) != 3 {
		t.Fatalf("stored report does not match: %+v", stored)
	}

	if got := testutil.ToFloat64(fx.metrics.RunsCompleted); got != 1 {
		t.Fatalf("expected 1 completed run, got %v", got)
	}
}

func TestRunIsolatesEntryFailure(t *testing.T) {
	fx := newYTdlpIntegrationFixture(t, "partial")

	report, err := fx.runner.Run(t.Context(), playlistURL, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if want := (entity.Summary{Total: 3, Downloaded: 2, Failed: 1}); report.Summary != want {
		t.Fatalf("expected summary %+v, got %+v", want, report.Summary)
	}

	failed := report.Outcomes[1]
	if failed.Status != entity.OutcomeFailed {
		t.Fatalf("expected second entry to fail, got %q", failed.Status)
	}

	if failed.Error != "[youtube] vid2: Video unavailable" {
		t.Fatalf("unexpected failure reason %q", failed.Error)
	}

	if _, err := os.Stat(filepath.Join(report.Folder, "vid3.mp4")); err != nil {
		t.Fatalf("entry after the failure was not downloaded: %v", err)
	}
}

func TestRunResolveFailure(t *testing.T) {
	fx := newYTdlpIntegrationFixture(t, "resolve-fail")

	report, err := fx.runner.Run(t.Context(), playlistURL, nil)
	if !errors.Is(err, errs.ErrResolveFailed) {
		t.Fatalf("expected ErrResolveFailed, got %v", err)
	}

	if !strings.Contains(err.Error(), "The playlist does not exist.") {
		t.Fatalf("error does not carry the yt-dlp reason: %v", err)
	}

	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}

	entries, err := os.ReadDir(fx.root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("expected no folder to be created, got %d entries", len(entries))
	}
}
