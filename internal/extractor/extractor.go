package extractor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

type Extractor struct {
	tar    *TARExtractor
	zip    *ZIPExtractor
	logger *log.Logger
}

func New(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		tar:    NewTAR(logger),
		zip:    NewZIP(logger),
		logger: logger,
	}
}

func (e *Extractor) Extract(src, dst string) error {
	return e.extract(src, dst, 0)
}

// ExtractStripped unpacks src like Extract but drops the archive's top-level
// directory. Runtime builds wrap everything in jdk-<version>-jre/.
func (e *Extractor) ExtractStripped(src, dst string) error {
	return e.extract(src, dst, 1)
}

func (e *Extractor) extract(src, dst string, strip int) error {
	lower := strings.ToLower(src)

	switch {
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"):
		return e.zip.ExtractStripped(src, dst, strip)
	case isTarArchive(lower):
		return e.tar.ExtractStripped(src, dst, strip)
	default:
		return fmt.Errorf("unsupported archive format: %s", src)
	}
}

// ExtractNatives unpacks every native archive into binDir. Native archives
// are jars, so they always go through the zip reader. The first failure
// aborts.
func (e *Extractor) ExtractNatives(archives []string, binDir string) error {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}

	for _, archive := range archives {
		if err := e.zip.Extract(archive, binDir); err != nil {
			return fmt.Errorf("extracting native %s: %w", archive, err)
		}
		e.logger.Debug("extracted native", "archive", archive)
	}
	return nil
}

func isTarArchive(name string) bool {
	tarExts := []string{".tar.gz", ".tar.zst", ".tar.xz", ".tar.bz2", ".tgz", ".txz", ".tzst", ".tbz2", ".tar"}
	for _, ext := range tarExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// memberPath maps an archive member to its destination under dst after
// dropping the first strip components. ok is false for members consumed by
// the strip, such as the top-level directory itself.
func memberPath(dst, name string, strip int) (target string, ok bool, err error) {
	if strings.Contains(name, "..") {
		return "", false, fmt.Errorf("invalid path in archive: %s", name)
	}

	parts := strings.FieldsFunc(filepath.ToSlash(name), func(r rune) bool { return r == '/' })
	parts = slices.DeleteFunc(parts, func(p string) bool { return p == "." })
	if len(parts) <= strip {
		return "", false, nil
	}
	return filepath.Join(append([]string{dst}, parts[strip:]...)...), true, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeSymlink creates target -> link, refusing links that leave root.
func writeSymlink(root, target, link string) error {
	resolved := filepath.Join(filepath.Dir(target), link)
	if filepath.IsAbs(link) || !strings.HasPrefix(resolved, filepath.Clean(root)+string(os.PathSeparator)) {
		return fmt.Errorf("symlink escapes archive root: %s", link)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	os.Remove(target)
	return os.Symlink(link, target)
}
