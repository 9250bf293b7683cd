package shellquote_test

import (
	"testing"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/shellquote"
)

func TestJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bin  string
		args []string
		want string
	}{
		{
			name: "no args",
			bin:  "/usr/bin/yt-dlp",
			args: nil,
			want: "/usr/bin/yt-dlp",
		},
		{
			name: "simple flags stay bare",
			bin:  "/usr/bin/yt-dlp",
			args: []string{"--flat-playlist", "--dump-single-json"},
			want: "/usr/bin/yt-dlp --flat-playlist --dump-single-json",
		},
		{
			name: "output template with spaces is quoted",
			bin:  "yt-dlp",
			args: []string{"-o", "My Mix/%(title)s.%(ext)s"},
			want: `yt-dlp -o "My Mix/%(title)s.%(ext)s"`,
		},
		{
			name: "format selector with plus stays bare",
			bin:  "yt-dlp",
			args: []string{"-f", "bestvideo+bestaudio/best"},
			want: "yt-dlp -f bestvideo+bestaudio/best",
		},
		{
			name: "url with query chars",
			bin:  "yt-dlp",
			args: []string{"https://example.com/playlist?list=a&b=1"},
			want: `yt-dlp "https://example.com/playlist?list=a&b=1"`,
		},
		{
			name: "embedded double quote is escaped",
			bin:  "yt-dlp",
			args: []string{"--title", `a"b`},
			want: `yt-dlp --title "a\"b"`,
		},
		{
			name: "dollar and backtick are escaped",
			bin:  "yt-dlp",
			args: []string{"$HOME`x`"},
			want: "yt-dlp \"\\$HOME\\`x\\`\"",
		},
		{
			name: "empty arg",
			bin:  "yt-dlp",
			args: []string{""},
			want: `yt-dlp ""`,
		},
		{
			name: "newline becomes escape sequence",
			bin:  "yt-dlp",
			args: []string{"line1\nline2"},
			want: `yt-dlp "line1\nline2"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := shellquote.Join(tt.bin, tt.args)
			if got != tt.want {
				t.Fatalf("Join() mismatch\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}
