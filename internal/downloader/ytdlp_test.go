package downloader_test

import (
	_ "embed"
	"errors"
	"testing"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/downloader"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
)

//go:embed testdata/playlist_flat.json
var playlistFlat string

//go:embed testdata/playlist_empty.json
var playlistEmpty string

//go:embed testdata/ytdlp_stdout_download.txt
var stdoutDownload string

//go:embed testdata/ytdlp_stdout_multiple.txt
var stdoutMultiple string

func TestParsePlaylistJSON(t *testing.T) {
	pl, err := downloader.ParsePlaylistJSON(playlistFlat, "https://www.youtube.com/playlist?list=PLmix01")
	if err != nil {
		t.Fatalf("ParsePlaylistJSON() failed: %v", err)
	}

	if pl.ID != "PLmix01" || pl.Title != "Test:Mix" {
		t.Errorf("got playlist %q/%q", pl.ID, pl.Title)
	}

	want := []entity.Entry{
		{ID: "aaa111", Title: "First clip", URL: "https://www.youtube.com/watch?v=aaa111", Index: 1, Duration: 212},
		{ID: "bbb222", Title: "", URL: "https://www.youtube.com/watch?v=bbb222", Index: 2},
		{ID: "ccc333", Title: "Third clip", URL: "https://youtu.be/ccc333", Index: 3, Duration: 60},
	}

	if len(pl.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(pl.Entries), len(want))
	}

	for i, e := range pl.Entries {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}

	if got := pl.Entries[1].DisplayTitle(); got != "Untitled" {
		t.Errorf("DisplayTitle() = %q, want Untitled", got)
	}
}

func TestParsePlaylistJSONEmpty(t *testing.T) {
	const src = "https://www.youtube.com/playlist?list=PLfallback"

	pl, err := downloader.ParsePlaylistJSON(playlistEmpty, src)
	if err != nil {
		t.Fatalf("ParsePlaylistJSON() failed: %v", err)
	}

	if len(pl.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(pl.Entries))
	}

	if pl.ID != "PLfallback" {
		t.Errorf("ID = %q, want PLfallback", pl.ID)
	}

	if pl.URL != src {
		t.Errorf("URL = %q, want %q", pl.URL, src)
	}
}

func TestParsePlaylistJSONSingleItem(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
	}{
		{name: "video", stdout: `{"_type":"video","id":"X","title":"A video","duration":12.0}`},
		{name: "untyped", stdout: `{"id":"X","title":"A video"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pl, err := downloader.ParsePlaylistJSON(tc.stdout, "https://www.youtube.com/watch?v=X")
			if !errors.Is(err, errs.ErrNotPlaylist) {
				t.Fatalf("ParsePlaylistJSON() err = %v, want ErrNotPlaylist", err)
			}

			if pl != nil {
				t.Errorf("playlist = %+v, want nil", pl)
			}
		})
	}
}

func TestParsePlaylistJSONInvalid(t *testing.T) {
	if _, err := downloader.ParsePlaylistJSON("ERROR: not json", ""); err == nil {
		t.Fatal("ParsePlaylistJSON() succeeded unexpectedly")
	}
}

func TestParseYtdlpStdout(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []downloader.ResultJSON
	}{
		{
			name:   "json then filepath assigns filename",
			stdout: stdoutDownload,
			want: []downloader.ResultJSON{
				{ID: "aaa111", Title: "First clip", Filename: "/tmp/TestMix/First clip.mp4"},
			},
		},
		{
			name:   "multiple entries with blanks and stray lines",
			stdout: stdoutMultiple,
			want: []downloader.ResultJSON{
				{ID: "one", Title: "First", Filename: "/tmp/one.mp4"},
				{ID: "two", Title: "Second", Filename: "/tmp/two.mkv"},
			},
		},
		{
			name:   "empty",
			stdout: "",
			want:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := downloader.ParseYtdlpStdout(tc.stdout)
			if err != nil {
				t.Fatalf("ParseYtdlpStdout() failed: %v", err)
			}

			if len(got) != len(tc.want) {
				t.Fatalf("got %d results, want %d", len(got), len(tc.want))
			}

			for idx, result := range got {
				if result.ID != tc.want[idx].ID || result.Title != tc.want[idx].Title {
					t.Errorf("got %q/%q, want %q/%q", result.ID, result.Title, tc.want[idx].ID, tc.want[idx].Title)
				}

				if result.Filename != tc.want[idx].Filename {
					t.Errorf("got Filename = %q, want %q", result.Filename, tc.want[idx].Filename)
				}
			}
		})
	}
}
