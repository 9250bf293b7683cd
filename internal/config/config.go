// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	App        App
	Dir        Dir
	Download   Download
	DepManager DepManager
	Proxy      Proxy
	HTTP       HTTP
}

// App holds application-wide configuration.
type App struct {
	LogLevel string `env:"PLDL_APP_LOG_LEVEL" envDefault:"info"`
	// LogFile receives the logs while the terminal UI owns the screen.
	LogFile string `env:"PLDL_APP_LOG_FILE" envDefault:"./pldl.log"`
	// Downloader selects the implementation: ytdlp or mock.
	Downloader string `env:"PLDL_APP_DOWNLOADER" envDefault:"ytdlp"`
}

// Dir holds directory paths for downloads, cache, and cookie file.
type Dir struct {
	// Root is where the per-playlist folders are created.
	Root  string `env:"PLDL_DIR_ROOT"  envDefault:"."`
	Cache string `env:"PLDL_DIR_CACHE" envDefault:""` // yt-dlp cache (meta, sigs)

	// see: https://github.com/yt-dlp/yt-dlp/wiki/FAQ#how-do-i-pass-cookies-to-yt-dlp
	CookieFile string `env:"PLDL_DIR_COOKIE_FILE" envDefault:""`
}

// SetAbsPaths converts all directory paths to absolute paths.
func (c *Dir) SetAbsPaths() error {
	var err error
	if c.Root, err = filepath.Abs(c.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}

	if c.Cache != "" {
		if c.Cache, err = filepath.Abs(c.Cache); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}

	if c.CookieFile != "" {
		if c.CookieFile, err = filepath.Abs(c.CookieFile); err != nil {
			return fmt.Errorf("cookie file: %w", err)
		}
	}

	return nil
}

// Download holds the per-entry yt-dlp options.
type Download struct {
	Format      string `env:"PLDL_DOWNLOAD_FORMAT"       envDefault:"bestvideo+bestaudio/best"`
	MergeFormat string `env:"PLDL_DOWNLOAD_MERGE_FORMAT" envDefault:"mp4"`
	// RecodeFormat converts the merged file; empty disables recoding.
	RecodeFormat string `env:"PLDL_DOWNLOAD_RECODE_FORMAT" envDefault:"mp4"`

	// see: https://github.com/yt-dlp/yt-dlp/blob/2025.09.05/README.md#output-template
	FilenameTemplate string `env:"PLDL_DOWNLOAD_FILENAME_TEMPLATE" envDefault:"%(title)s.%(ext)s"`

	// Retries is the number of extra attempts for a failed entry.
	Retries int `env:"PLDL_DOWNLOAD_RETRIES" envDefault:"0"`
	// EntryTimeout bounds one entry download; zero means no limit.
	EntryTimeout time.Duration `env:"PLDL_DOWNLOAD_ENTRY_TIMEOUT" envDefault:"0s"`
}

// DepManager holds binary dependency management configuration.
type DepManager struct {
	// BinsDir is the directory where binaries are stored
	BinsDir string `env:"PLDL_DEPMANAGER_BINS_DIR" envDefault:"./bins"`
	// UseSystemBinaries looks the binaries up in PATH instead of downloading them.
	UseSystemBinaries bool `env:"PLDL_DEPMANAGER_USE_SYSTEM_BINARIES" envDefault:"true"`
	// UpdateInterval is how often to check for binary updates; zero disables it.
	UpdateInterval time.Duration `env:"PLDL_DEPMANAGER_UPDATE_INTERVAL" envDefault:"24h"`

	// ffmpeg binary URLs per platform.
	FFmpegSHA256SumsURL string `env:"PLDL_DEPMANAGER_FFMPEG_SHA256SUMS_URL" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/checksums.sha256"`                        //nolint:lll
	FFmpegLinuxARM64    string `env:"PLDL_DEPMANAGER_FFMPEG_LINUX_ARM64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linuxarm64-gpl.tar.xz"` //nolint:lll
	FFmpegLinuxAMD64    string `env:"PLDL_DEPMANAGER_FFMPEG_LINUX_AMD64" envDefault:"https://github.com/BtbN/FFmpeg-Builds/releases/latest/download/ffmpeg-master-latest-linux64-gpl.tar.xz"`    //nolint:lll

	// yt-dlp binary URLs per platform.
	YTdlpSHA256SumsURL string `env:"PLDL_DEPMANAGER_YTDLP_SHA256SUMS_URL" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/SHA2-256SUMS"`      //nolint:lll
	YTdlpLinuxARM64    string `env:"PLDL_DEPMANAGER_YTDLP_LINUX_ARM64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux_aarch64"` //nolint:lll
	YTdlpLinuxAMD64    string `env:"PLDL_DEPMANAGER_YTDLP_LINUX_AMD64" envDefault:"https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_linux"`         //nolint:lll
}

// SetAbsPaths converts the BinsDir path to an absolute path.
func (d *DepManager) SetAbsPaths() error {
	var err error
	if d.BinsDir, err = filepath.Abs(d.BinsDir); err != nil {
		return fmt.Errorf("bins dir: %w", err)
	}

	return nil
}

// Proxy holds proxy configuration for yt-dlp requests.
type Proxy struct {
	// List is a comma-separated list of proxy URLs, e.g. socks5h://host:1080
	List string `env:"PLDL_PROXY_LIST" envDefault:""`
	// FailureBackoff is the initial backoff duration for failed proxies
	FailureBackoff time.Duration `env:"PLDL_PROXY_FAILURE_BACKOFF" envDefault:"1m"`
	// MaxFailures is the number of consecutive failures before a proxy is benched
	MaxFailures int `env:"PLDL_PROXY_MAX_FAILURES" envDefault:"3"`
	// HealthCheck dials every proxy at startup and every HealthInterval, benching unreachable ones
	HealthCheck    bool          `env:"PLDL_PROXY_HEALTH_CHECK"    envDefault:"false"`
	HealthTimeout  time.Duration `env:"PLDL_PROXY_HEALTH_TIMEOUT"  envDefault:"5s"`
	HealthInterval time.Duration `env:"PLDL_PROXY_HEALTH_INTERVAL" envDefault:"5m"`

	// Proxies is the parsed list of proxy URLs
	Proxies []string `env:"-"`
}

// parseList parses the comma-separated proxy list.
func (p *Proxy) parseList() {
	p.Proxies = nil

	for proxy := range strings.SplitSeq(p.List, ",") {
		proxy = strings.TrimSpace(proxy)
		if proxy != "" {
			p.Proxies = append(p.Proxies, proxy)
		}
	}
}

// HTTP holds the status and metrics endpoint configuration.
type HTTP struct {
	// Addr enables /metrics and the /v1 status API when set, e.g. ":9090".
	Addr            string        `env:"PLDL_HTTP_ADDR"             envDefault:""`
	ShutdownTimeout time.Duration `env:"PLDL_HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := &Config{}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	err = cfg.Dir.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set absolute paths: %w", err)
	}

	err = cfg.DepManager.SetAbsPaths()
	if err != nil {
		return nil, fmt.Errorf("set dep manager absolute paths: %w", err)
	}

	if cfg.Download.Retries < 0 {
		return nil, fmt.Errorf("download retries must not be negative: %d", cfg.Download.Retries)
	}

	cfg.Proxy.parseList()

	return cfg, nil
}
