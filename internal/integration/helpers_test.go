//go:build integration
// +build integration

package integration_test

import (
	_ "embed"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/config"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/depmanager"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/downloader"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/logger"
)

//go:embed testdata/fake-ytdlp.sh
var fakeYTDLPScript string

const playlistURL = "https://example.com/playlist?list=PLfake"

type ytdlpIntegrationFixture struct {
	cfg     *config.Config
	root    string
	metrics *observability.Metrics
	ytdlp   *downloader.YTdlp
	runner  *batch.Runner
}

func newYTdlpIntegrationFixture(t *testing.T, mode string) *ytdlpIntegrationFixture {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("integration fake yt-dlp helper uses shell script")
	}

	baseDir := t.TempDir()
	binsDir := filepath.Join(baseDir, "bins")
	rootDir := filepath.Join(baseDir, "downloads")

	for _, dir := range []string{binsDir, rootDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	if err := os.WriteFile(filepath.Join(binsDir, "yt-dlp"), []byte(fakeYTDLPScript), 0o755); err != nil {
		t.Fatalf("write fake yt-dlp: %v", err)
	}

	t.Setenv("PATH", binsDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("PLDL_FAKE_MODE", mode)

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	cfg.Dir.Root = rootDir
	cfg.Dir.Cache = filepath.Join(baseDir, "cache")
	cfg.Dir.CookieFile = ""
	cfg.DepManager.BinsDir = binsDir
	cfg.DepManager.UseSystemBinaries = true

	log := logger.Discard()
	metrics := observability.New()

	depMgr := depmanager.New(log, cfg.DepManager)
	if err := depMgr.Start(t.Context()); err != nil {
		t.Fatalf("depmanager start: %v", err)
	}

	if path, err := depMgr.Path(depmanager.BinaryYTdlp); err != nil || filepath.Dir(path) != binsDir {
		t.Fatalf("yt-dlp resolved to %q (%v), want the fake in %s", path, err, binsDir)
	}

	opts := downloader.NewOptions(cfg.Download, cfg.Dir)
	yt := downloader.NewYTdlp(log, opts, depMgr, nil, metrics)

	return &ytdlpIntegrationFixture{
		cfg:     cfg,
		root:    rootDir,
		metrics: metrics,
		ytdlp:   yt,
		runner:  batch.New(log, yt, yt, opts, cfg.Download.Retries, metrics),
	}
}
