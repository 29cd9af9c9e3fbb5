package extractor

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func tarBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func compress(t *testing.T, data []byte, wrap func(io.Writer) (io.WriteCloser, error)) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := wrap(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func TestExtractNatives(t *testing.T) {
	dir := t.TempDir()
	lwjgl := filepath.Join(dir, "lwjgl-natives-linux.jar")
	openal := filepath.Join(dir, "openal-natives-linux.jar")
	writeZip(t, lwjgl, map[string]string{"liblwjgl.so": "lwjgl", "META-INF/MANIFEST.MF": "Manifest-Version: 1.0"})
	writeZip(t, openal, map[string]string{"libopenal.so": "openal"})

	bin := filepath.Join(dir, "instance", "bin")
	require.NoError(t, New(nil).ExtractNatives([]string{lwjgl, openal}, bin))

	assertFile(t, filepath.Join(bin, "liblwjgl.so"), "lwjgl")
	assertFile(t, filepath.Join(bin, "libopenal.so"), "openal")
	assertFile(t, filepath.Join(bin, "META-INF", "MANIFEST.MF"), "Manifest-Version: 1.0")
}

func TestExtractNativesCorruptArchiveIsFatal(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jar")
	bad := filepath.Join(dir, "bad.jar")
	writeZip(t, good, map[string]string{"a.so": "a"})
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0644))

	err := New(nil).ExtractNatives([]string{good, bad}, filepath.Join(dir, "bin"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jar")
}

func TestZipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	evil := filepath.Join(dir, "evil.zip")
	writeZip(t, evil, map[string]string{"../escape.txt": "x"})

	err := New(nil).Extract(evil, filepath.Join(dir, "out"))
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractTarVariants(t *testing.T) {
	files := map[string]string{"jdk/bin/java": "#!/bin/sh", "jdk/release": "JAVA_VERSION=17"}
	plain := tarBytes(t, files)

	tests := []struct {
		name string
		data []byte
	}{
		{"runtime.tar", plain},
		{"runtime.tar.gz", compress(t, plain, func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil })},
		{"runtime.tar.zst", compress(t, plain, func(w io.Writer) (io.WriteCloser, error) { return zstd.NewWriter(w) })},
		{"runtime.tar.xz", compress(t, plain, func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(src, tt.data, 0644))

			out := filepath.Join(dir, "out")
			require.NoError(t, New(nil).Extract(src, out))
			assertFile(t, filepath.Join(out, "jdk", "release"), "JAVA_VERSION=17")
		})
	}
}

func TestExtractUnsupported(t *testing.T) {
	assert.Error(t, New(nil).Extract("pack.rar", t.TempDir()))
}

func TestExtractStrippedDropsTopLevelDir(t *testing.T) {
	plain := tarBytes(t, map[string]string{
		"jdk-17.0.9+9-jre/bin/java": "#!/bin/sh",
		"jdk-17.0.9+9-jre/release":  "JAVA_VERSION=17",
	})

	tests := []struct {
		name  string
		write func(t *testing.T, path string)
	}{
		{"runtime.tar", func(t *testing.T, path string) {
			require.NoError(t, os.WriteFile(path, plain, 0644))
		}},
		{"runtime.tar.gz", func(t *testing.T, path string) {
			data := compress(t, plain, func(w io.Writer) (io.WriteCloser, error) { return gzip.NewWriter(w), nil })
			require.NoError(t, os.WriteFile(path, data, 0644))
		}},
		{"runtime.zip", func(t *testing.T, path string) {
			writeZip(t, path, map[string]string{
				"jdk-17.0.9+9-jre/bin/java": "#!/bin/sh",
				"jdk-17.0.9+9-jre/release":  "JAVA_VERSION=17",
			})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tt.name)
			tt.write(t, src)

			out := filepath.Join(dir, "out")
			require.NoError(t, New(nil).ExtractStripped(src, out))
			assertFile(t, filepath.Join(out, "bin", "java"), "#!/bin/sh")
			assertFile(t, filepath.Join(out, "release"), "JAVA_VERSION=17")
			assert.NoDirExists(t, filepath.Join(out, "jdk-17.0.9+9-jre"))
		})
	}
}

func TestMemberPath(t *testing.T) {
	tests := []struct {
		name   string
		strip  int
		want   string
		wantOK bool
	}{
		{"jdk/bin/java", 0, filepath.Join("out", "jdk", "bin", "java"), true},
		{"jdk/bin/java", 1, filepath.Join("out", "bin", "java"), true},
		{"jdk/", 1, "", false},
		{"./jdk//release", 1, filepath.Join("out", "release"), true},
	}

	for _, tt := range tests {
		got, ok, err := memberPath("out", tt.name, tt.strip)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, _, err := memberPath("out", "jdk/../../etc/passwd", 1)
	assert.Error(t, err)
}

func TestTarRejectsEscapingSymlink(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "jdk/lib/evil", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())

	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0644))

	err := New(nil).Extract(src, filepath.Join(dir, "out"))
	assert.ErrorContains(t, err, "symlink escapes")
}
