package downloader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lrstanley/go-ytdlp"
)

func TestEntryURL(t *testing.T) {
	tests := []struct {
		name  string
		entry Entries
		want  string
	}{
		{name: "webpage url wins", entry: Entries{ID: "x", URL: "https://a", WebpageURL: "https://b"}, want: "https://b"},
		{name: "url", entry: Entries{ID: "x", URL: "https://a"}, want: "https://a"},
		{name: "youtube id", entry: Entries{ID: "x", IEKey: "Youtube"}, want: "https://www.youtube.com/watch?v=x"},
		{name: "bare id", entry: Entries{ID: "x", IEKey: "Vimeo"}, want: "x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := entryURL(tc.entry); got != tc.want {
				t.Errorf("entryURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestErrorReason(t *testing.T) {
	runErr := errors.New("exit status 1")

	tests := []struct {
		name string
		res  *ytdlp.Result
		err  error
		want string
	}{
		{
			name: "last ERROR line",
			res: &ytdlp.Result{Stderr: "WARNING: slow\n" +
				"ERROR: [youtube] aaa: first\n" +
				"ERROR: [youtube] bbb: Video unavailable\n"},
			err:  runErr,
			want: "[youtube] bbb: Video unavailable",
		},
		{name: "no ERROR line", res: &ytdlp.Result{Stderr: "WARNING: x"}, err: runErr, want: "exit status 1"},
		{name: "nil result", res: nil, err: runErr, want: "exit status 1"},
		{name: "nothing", res: nil, err: nil, want: "unknown error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorReason(tc.res, tc.err); got != tc.want {
				t.Errorf("errorReason() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: context.Canceled, want: "canceled"},
		{err: fmt.Errorf("run: %w", context.DeadlineExceeded), want: "timeout"},
		{err: errors.New("boom"), want: "process"},
	}

	for _, tc := range tests {
		if got := classifyError(tc.err); got != tc.want {
			t.Errorf("classifyError(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
