package extractor

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ZIPExtractor unpacks zips and jars: modpack archives, natives and the
// windows runtime builds.
type ZIPExtractor struct {
	logger *log.Logger
}

func NewZIP(logger *log.Logger) *ZIPExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &ZIPExtractor{logger: logger}
}

// Extract unpacks src into dst. Members whose name contains ".." are
// rejected; symlinks are ignored.
func (ze *ZIPExtractor) Extract(src, dst string) error {
	return ze.ExtractStripped(src, dst, 0)
}

// ExtractStripped is Extract with the first strip path components of every
// member removed.
func (ze *ZIPExtractor) ExtractStripped(src, dst string, strip int) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	defer r.Close()

	var files int
	for _, f := range r.File {
		if f.Mode()&os.ModeSymlink != 0 {
			continue
		}

		target, ok, err := memberPath(dst, f.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := ze.extractFile(f, target); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
		files++
	}

	ze.logger.Debug("unpacked zip", "archive", filepath.Base(src), "files", files)
	return nil
}

func (ze *ZIPExtractor) extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return writeFile(target, rc, f.Mode().Perm())
}
