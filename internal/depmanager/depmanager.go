// Package depmanager provides the external binaries yt-dlp needs.
// It either looks them up in PATH or downloads them into a bins directory.
// Checksums are used only to detect when new versions are available, not to verify downloads.
package depmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/config"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/errs"
)

// BinaryName represents the name of a binary dependency.
type BinaryName string

// Binary dependency names.
const (
	BinaryYTdlp   BinaryName = "yt-dlp"
	BinaryFFmpeg  BinaryName = "ffmpeg"
	BinaryFFprobe BinaryName = "ffprobe"
)

// Platform operating system names and architectures.
const (
	platformLinux   = "linux"
	platformWindows = "windows"
	archARM64       = "arm64"
	archAMD64       = "amd64"
)

const (
	// downloadTimeout is the HTTP client timeout for downloading binaries.
	downloadTimeout = 10 * time.Minute
	// filePermExecutable is the file permission for executable binaries.
	filePermExecutable = 0o755
	// filePermReadWrite is the file permission for regular files.
	filePermReadWrite = 0o644
	// sha256HexLength is the expected length of SHA256 hex string.
	sha256HexLength = 64
	// sha256SumsFieldCount is the expected field count in SHA256SUMS format.
	sha256SumsFieldCount = 2
	// savedSumsFilename is the filename for saved checksums.
	savedSumsFilename = ".sha256sums.json"
)

// Platform represents the OS and architecture combination.
type Platform struct {
	OS   string
	Arch string
}

// String returns the platform string in format "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// source is one downloadable artifact and the binaries it provides.
type source struct {
	name     BinaryName
	url      string
	sumsURLs []string
	provides []BinaryName
}

// asset is the artifact's filename as listed in the checksum files.
func (s source) asset() string {
	return path.Base(s.url)
}

// Manager manages binary dependencies.
type Manager struct {
	log      *slog.Logger
	cfg      config.DepManager
	platform Platform
	client   *http.Client

	mu        sync.RWMutex
	shaSums   map[string]string     // asset -> sha256 hash (fetched from remote)
	savedSums map[string]string     // asset -> sha256 hash (saved from previous run)
	binPaths  map[BinaryName]string // binary name -> installed path

	updating atomic.Bool
}

// New creates a new dependency manager.
func New(log *slog.Logger, cfg config.DepManager) *Manager {
	return &Manager{
		log: log.With(slog.String("package", "depmanager")),
		cfg: cfg,
		platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		client: &http.Client{
			Timeout: downloadTimeout,
		},
		shaSums:   make(map[string]string),
		savedSums: make(map[string]string),
		binPaths:  make(map[BinaryName]string),
	}
}

// Start makes the binaries available, from PATH or by downloading them.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.UseSystemBinaries {
		return m.SetSystemBinaries(ctx)
	}

	return m.InstallAll(ctx)
}

// Path returns the resolved path of a binary.
func (m *Manager) Path(name BinaryName) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.binPaths[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrBinaryNotFound, name)
	}

	return p, nil
}

// SetSystemBinaries looks the binaries up in the system PATH.
// yt-dlp is required; ffmpeg and ffprobe are recorded when present.
func (m *Manager) SetSystemBinaries(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, binary := range []BinaryName{BinaryYTdlp, BinaryFFmpeg, BinaryFFprobe} {
		p, err := exec.LookPath(string(binary))
		if err != nil {
			if binary == BinaryYTdlp {
				return fmt.Errorf("%w: %s not in PATH: %w", errs.ErrBinaryNotFound, binary, err)
			}

			m.log.WarnContext(ctx, "binary not in PATH, merging formats may fail", slog.String("binary", string(binary)))

			continue
		}

		m.binPaths[binary] = p
	}

	return nil
}

// InstallAll downloads all required binaries that are missing from the bins directory.
func (m *Manager) InstallAll(ctx context.Context) error {
	log := m.log

	err := os.MkdirAll(m.cfg.BinsDir, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create bins directory: %w", err)
	}

	err = m.loadSavedSums()
	if err != nil {
		log.DebugContext(ctx, "no saved checksums found, first run", slog.Any("error", err))
	}

	sources, err := m.sources()
	if err != nil {
		return err
	}

	for _, src := range sources {
		if m.isInstalled(src) {
			m.setInstalled(src.provides...)
			log.DebugContext(ctx, "binary already exists", slog.String("binary", string(src.name)))

			continue
		}

		if err := m.install(ctx, src); err != nil {
			return fmt.Errorf("install %s: %w", src.name, err)
		}
	}

	log.InfoContext(ctx, "all binaries are installed", slog.Any("binaries", m.installed()))

	// Checksums only drive update checks; failing to get them is not fatal.
	if err := m.FetchSHASums(ctx); err != nil {
		log.WarnContext(ctx, "failed to fetch checksums", slog.Any("error", err))

		return nil
	}

	if err := m.saveSums(); err != nil {
		log.WarnContext(ctx, "failed to save checksums", slog.Any("error", err))
	}

	return nil
}

// GetBinaryPath returns where a binary lives inside the bins directory.
//   - /home/user/bins + yt-dlp => /home/user/bins/yt-dlp
func (m *Manager) GetBinaryPath(name BinaryName) string {
	filename := string(name)
	if m.platform.OS == platformWindows {
		filename += ".exe"
	}

	return filepath.Join(m.cfg.BinsDir, filename)
}

// RunUpdateChecker periodically re-downloads binaries whose checksums changed.
// It blocks until ctx is done. System binaries are never updated.
func (m *Manager) RunUpdateChecker(ctx context.Context) error {
	if m.cfg.UseSystemBinaries || m.cfg.UpdateInterval <= 0 {
		return nil
	}

	ticker := time.NewTicker(m.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.checkAndUpdate(ctx)
		}
	}
}

// FetchSHASums fetches and parses SHA256 sums from configured URLs.
func (m *Manager) FetchSHASums(ctx context.Context) error {
	sources, err := m.sources()
	if err != nil {
		return err
	}

	for _, src := range sources {
		for _, url := range src.sumsURLs {
			body, err := m.get(ctx, url)
			if err != nil {
				return fmt.Errorf("fetch SHA sums: %w", err)
			}

			m.ParseSHASums(string(body))
		}
	}

	return nil
}

// ParseSHASums parses SHA256 sums from content in the format "hash  filename".
// Malformed lines are skipped.
func (m *Manager) ParseSHASums(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for line := range strings.SplitSeq(content, "\n") {
		parts := strings.Fields(line)
		if len(parts) != sha256SumsFieldCount || len(parts[0]) != sha256HexLength {
			continue
		}

		// "*" marks binary mode in sha256sum output
		m.shaSums[strings.TrimPrefix(parts[1], "*")] = parts[0]
	}

	m.log.Debug("parsed SHA256 sums", slog.Int("count", len(m.shaSums)))
}

// checkAndUpdate checks for updates and downloads new versions if available.
func (m *Manager) checkAndUpdate(ctx context.Context) {
	if !m.updating.CompareAndSwap(false, true) {
		return
	}
	defer m.updating.Store(false)

	log := m.log

	if err := m.FetchSHASums(ctx); err != nil {
		log.WarnContext(ctx, "update check: failed to fetch checksums", slog.Any("error", err))

		return
	}

	updates := m.findUpdates()
	if len(updates) == 0 {
		log.DebugContext(ctx, "update check: no updates available")

		return
	}

	for _, src := range updates {
		if err := m.install(ctx, src); err != nil {
			log.ErrorContext(ctx, "update check: failed to update binary",
				slog.String("binary", string(src.name)),
				slog.Any("error", err))

			continue
		}

		log.InfoContext(ctx, "update check: binary updated", slog.String("binary", string(src.name)))
	}

	if err := m.saveSums(); err != nil {
		log.WarnContext(ctx, "update check: failed to save checksums", slog.Any("error", err))
	}
}

// findUpdates returns the sources whose fetched checksum differs from the saved one.
func (m *Manager) findUpdates() []source {
	sources, err := m.sources()
	if err != nil {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var updates []source

	for _, src := range sources {
		newHash, hasNew := m.shaSums[src.asset()]
		oldHash, hasOld := m.savedSums[src.asset()]

		if hasNew && (!hasOld || newHash != oldHash) {
			updates = append(updates, src)
		}
	}

	return updates
}

// sources lists the artifacts to install on the current platform.
func (m *Manager) sources() ([]source, error) {
	cfg := m.cfg

	sources := []source{
		{
			name:     BinaryYTdlp,
			url:      m.selectURL(cfg.YTdlpLinuxARM64, cfg.YTdlpLinuxAMD64),
			sumsURLs: splitList(cfg.YTdlpSHA256SumsURL),
			provides: []BinaryName{BinaryYTdlp},
		},
		{
			name:     BinaryFFmpeg,
			url:      m.selectURL(cfg.FFmpegLinuxARM64, cfg.FFmpegLinuxAMD64),
			sumsURLs: splitList(cfg.FFmpegSHA256SumsURL),
			provides: []BinaryName{BinaryFFmpeg, BinaryFFprobe},
		},
	}

	for _, src := range sources {
		if src.url == "" {
			return nil, fmt.Errorf("%w: no %s download for %s", errs.ErrUnsupportedPlatform, src.name, m.platform)
		}
	}

	return sources, nil
}

// selectURL picks the download for the platform; only linux builds are configured.
func (m *Manager) selectURL(linuxARM64, linuxAMD64 string) string {
	if m.platform.OS != platformLinux {
		return ""
	}

	switch m.platform.Arch {
	case archARM64:
		return linuxARM64
	case archAMD64:
		return linuxAMD64
	default:
		return ""
	}
}

func (m *Manager) isInstalled(src source) bool {
	for _, name := range src.provides {
		info, err := os.Stat(m.GetBinaryPath(name))
		if err != nil || info.Size() == 0 {
			return false
		}
	}

	return true
}

func (m *Manager) setInstalled(names ...BinaryName) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range names {
		m.binPaths[name] = m.GetBinaryPath(name)
	}
}

func (m *Manager) installed() map[BinaryName]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return maps.Clone(m.binPaths)
}

// install downloads src and places the binaries it provides into the bins directory.
func (m *Manager) install(ctx context.Context, src source) error {
	log := m.log.With(slog.String("binary", string(src.name)))
	log.InfoContext(ctx, "downloading binary", slog.String("url", src.url))

	tmpFile, err := os.CreateTemp(m.cfg.BinsDir, "download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if err := m.download(ctx, src.url, tmpFile); err != nil {
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if kind := archiveKind(src.url); kind != archiveNone {
		targets := make(map[string]string, len(src.provides))
		for _, name := range src.provides {
			targets[filepath.Base(m.GetBinaryPath(name))] = m.GetBinaryPath(name)
		}

		if err := extract(kind, tmpPath, targets); err != nil {
			return fmt.Errorf("extract: %w", err)
		}
	} else if err := os.Rename(tmpPath, m.GetBinaryPath(src.name)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	for _, name := range src.provides {
		if err := os.Chmod(m.GetBinaryPath(name), filePermExecutable); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}

	m.setInstalled(src.provides...)

	log.InfoContext(ctx, "binary installed successfully", slog.String("path", m.GetBinaryPath(src.name)))

	return nil
}

func (m *Manager) download(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

func (m *Manager) get(ctx context.Context, url string) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.download(ctx, url, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// loadSavedSums loads saved checksums from file.
func (m *Manager) loadSavedSums() error {
	data, err := os.ReadFile(filepath.Join(m.cfg.BinsDir, savedSumsFilename))
	if err != nil {
		return fmt.Errorf("read checksums file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := json.Unmarshal(data, &m.savedSums); err != nil {
		return fmt.Errorf("unmarshal checksums: %w", err)
	}

	return nil
}

// saveSums saves current checksums to file for future comparison.
func (m *Manager) saveSums() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.shaSums, "", "  ")
	m.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal checksums: %w", err)
	}

	filePath := filepath.Join(m.cfg.BinsDir, savedSumsFilename)
	if err := os.WriteFile(filePath, data, filePermReadWrite); err != nil {
		return fmt.Errorf("write checksums file: %w", err)
	}

	m.mu.Lock()
	m.savedSums = maps.Clone(m.shaSums)
	m.mu.Unlock()

	return nil
}

func splitList(raw string) []string {
	var out []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
