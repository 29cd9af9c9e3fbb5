package extractor

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// codec is a tar compression format recognised by its leading magic bytes.
type codec struct {
	name  string
	magic []byte
	open  func(io.Reader) (io.Reader, func(), error)
}

var codecs = []codec{
	{"gzip", []byte{0x1f, 0x8b}, func(r io.Reader) (io.Reader, func(), error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	}},
	{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}, func(r io.Reader) (io.Reader, func(), error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	}},
	{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, func(r io.Reader) (io.Reader, func(), error) {
		xr, err := xz.NewReader(r)
		return xr, nil, err
	}},
	{"bzip2", []byte("BZh"), func(r io.Reader) (io.Reader, func(), error) {
		return bzip2.NewReader(r), nil, nil
	}},
}

// decompress picks the codec matching the head of r. Uncompressed tarballs
// are passed through as "none".
func decompress(r io.Reader) (io.Reader, func(), string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(6)

	for _, c := range codecs {
		if !bytes.HasPrefix(head, c.magic) {
			continue
		}
		dr, closeFn, err := c.open(br)
		if err != nil {
			return nil, nil, "", fmt.Errorf("%s: %w", c.name, err)
		}
		if closeFn == nil {
			closeFn = func() {}
		}
		return dr, closeFn, c.name, nil
	}
	return br, func() {}, "none", nil
}

// TARExtractor unpacks tarballs, mostly Java runtime builds.
type TARExtractor struct {
	logger *log.Logger
}

func NewTAR(logger *log.Logger) *TARExtractor {
	if logger == nil {
		logger = log.Default()
	}
	return &TARExtractor{logger: logger}
}

func (te *TARExtractor) Extract(src, dst string) error {
	return te.ExtractStripped(src, dst, 0)
}

// ExtractStripped unpacks src into dst with the first strip path components
// of every member removed, like tar --strip-components.
func (te *TARExtractor) ExtractStripped(src, dst string, strip int) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	name := filepath.Base(src)
	r, closeFn, codec, err := decompress(file)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer closeFn()

	tr := tar.NewReader(r)
	var files int
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}

		target, ok, err := memberPath(dst, hdr.Name, strip)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			err = os.MkdirAll(target, 0755)
		case tar.TypeReg:
			err = writeFile(target, tr, hdr.FileInfo().Mode().Perm())
			files++
		case tar.TypeSymlink:
			err = writeSymlink(dst, target, hdr.Linkname)
		default:
			te.logger.Debug("skipping tar member", "name", hdr.Name, "type", string(hdr.Typeflag))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", hdr.Name, err)
		}
	}

	te.logger.Debug("unpacked tarball", "archive", name, "codec", codec, "files", files)
	return nil
}
