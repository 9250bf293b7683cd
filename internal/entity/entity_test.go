package entity_test

import (
	"testing"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

func TestEntryDisplayTitle(t *testing.T) {
	if got := (entity.Entry{}).DisplayTitle(); got != "Untitled" {
		t.Errorf("DisplayTitle() = %q, want Untitled", got)
	}

	if got := (entity.Entry{Title: "Intro"}).DisplayTitle(); got != "Intro" {
		t.Errorf("DisplayTitle() = %q, want Intro", got)
	}
}

func TestReportAdd(t *testing.T) {
	var r entity.Report

	r.Add(entity.Outcome{Status: entity.OutcomeDownloaded})
	r.Add(entity.Outcome{Status: entity.OutcomeFailed})
	r.Add(entity.Outcome{Status: entity.OutcomeDownloaded})

	want := entity.Summary{Total: 3, Downloaded: 2, Failed: 1}
	if r.Summary != want {
		t.Errorf("Summary = %+v, want %+v", r.Summary, want)
	}

	if len(r.Outcomes) != 3 {
		t.Errorf("len(Outcomes) = %d, want 3", len(r.Outcomes))
	}
}
