package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
)

const reportPerm = 0o644

// WriteReport writes report as JSON into dir, replacing any previous report atomically.
func WriteReport(dir string, report *entity.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()

		return "", fmt.Errorf("write report: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}

	if err := os.Chmod(tmpPath, reportPerm); err != nil {
		return "", fmt.Errorf("chmod report: %w", err)
	}

	path := filepath.Join(dir, consts.ReportFilename)
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename report: %w", err)
	}

	return path, nil
}
