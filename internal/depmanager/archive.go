package depmanager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

type archiveType int

const (
	archiveNone archiveType = iota
	archiveZip
	archiveTarXZ
	archiveTarGZ
)

func archiveKind(url string) archiveType {
	switch {
	case strings.HasSuffix(url, ".zip"):
		return archiveZip
	case strings.HasSuffix(url, ".tar.xz"):
		return archiveTarXZ
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		return archiveTarGZ
	default:
		return archiveNone
	}
}

// extract copies the archive members whose base name is a key of targets
// to the path stored under that key. All targets must be found.
func extract(kind archiveType, archivePath string, targets map[string]string) error {
	var (
		found int
		err   error
	)

	switch kind {
	case archiveZip:
		found, err = extractZip(archivePath, targets)
	case archiveTarXZ, archiveTarGZ:
		found, err = extractTar(kind, archivePath, targets)
	default:
		return errors.New("unsupported archive format")
	}

	if err != nil {
		return err
	}

	if found != len(targets) {
		return fmt.Errorf("found %d of %d target files in archive", found, len(targets))
	}

	return nil
}

func extractZip(zipPath string, targets map[string]string) (int, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	found := 0

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}

		dest, ok := targets[filepath.Base(file.Name)]
		if !ok {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return found, fmt.Errorf("open %s in zip: %w", file.Name, err)
		}

		err = writeExecutable(dest, rc)
		rc.Close()

		if err != nil {
			return found, err
		}

		found++
	}

	return found, nil
}

func extractTar(kind archiveType, tarPath string, targets map[string]string) (int, error) {
	file, err := os.Open(tarPath)
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	var r io.Reader

	switch kind {
	case archiveTarXZ:
		if r, err = xz.NewReader(file); err != nil {
			return 0, fmt.Errorf("create xz reader: %w", err)
		}
	default:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return 0, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()

		r = gz
	}

	tarReader := tar.NewReader(r)
	found := 0

	for found < len(targets) {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return found, fmt.Errorf("read tar header: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		dest, ok := targets[filepath.Base(header.Name)]
		if !ok {
			continue
		}

		if err := writeExecutable(dest, tarReader); err != nil {
			return found, err
		}

		found++
	}

	return found, nil
}

func writeExecutable(dest string, r io.Reader) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermExecutable)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()

		return fmt.Errorf("write %s: %w", dest, err)
	}

	return out.Close()
}
