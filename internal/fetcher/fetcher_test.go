package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teamcutter/sml/internal/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func body(path string) string {
	return "content of " + path
}

func TestFetchAllWritesExactBytes(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body(r.URL.Path))
	})

	dir := t.TempDir()
	set := domain.NewDownloadSet()
	for i := range 25 {
		set.Add(filepath.Join(dir, fmt.Sprintf("f%02d.bin", i)), fmt.Sprintf("%s/file/%d", srv.URL, i))
	}

	report := New(5*time.Second, 8).FetchAll(context.Background(), set)
	if err := report.Err(); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(report.Results) != set.Len() {
		t.Fatalf("got %d results, want %d", len(report.Results), set.Len())
	}

	for path, url := range set {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		want := body(strings.TrimPrefix(url, srv.URL))
		if string(got) != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "ok")
	})

	dir := t.TempDir()
	set := domain.NewDownloadSet()
	for i := range 64 {
		set.Add(filepath.Join(dir, fmt.Sprint(i)), fmt.Sprintf("%s/%d", srv.URL, i))
	}

	report := New(5*time.Second, DefaultParallel).FetchAll(context.Background(), set)
	if err := report.Err(); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := peak.Load(); got > DefaultParallel {
		t.Errorf("peak concurrency %d exceeds %d", got, DefaultParallel)
	}
	if got := peak.Load(); got < 2 {
		t.Errorf("peak concurrency %d, expected parallel fetches", got)
	}
}

func TestFetchAllCreatesParentDirectories(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	})

	dir := t.TempDir()
	set := domain.NewDownloadSet()
	set.Add(filepath.Join(dir, "assets", "objects", "ab", "abcdef"), srv.URL+"/a")
	set.Add(filepath.Join(dir, "assets", "objects", "ab", "ab0123"), srv.URL+"/b")
	set.Add(filepath.Join(dir, "libraries", "org", "lwjgl", "lwjgl.jar"), srv.URL+"/c")

	report := New(5*time.Second, 8).FetchAll(context.Background(), set)
	if err := report.Err(); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	for path := range set {
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			t.Errorf("%s is not a regular file: %v", path, err)
		}
	}
}

func TestDownloadSetLastWriterWins(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	})

	dst := filepath.Join(t.TempDir(), "A")
	set := domain.NewDownloadSet()
	set.Add(dst, srv.URL+"/url1")

	other := domain.NewDownloadSet()
	other.Add(dst, srv.URL+"/url2")
	set.Merge(other)

	if set.Len() != 1 {
		t.Fatalf("set has %d entries, want 1", set.Len())
	}

	report := New(5*time.Second, 8).FetchAll(context.Background(), set)
	if err := report.Err(); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "/url2" {
		t.Errorf("content = %q, want /url2", got)
	}
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "ok")
	})

	dir := t.TempDir()
	set := domain.NewDownloadSet()
	set.Add(filepath.Join(dir, "good1"), srv.URL+"/good1")
	set.Add(filepath.Join(dir, "bad"), srv.URL+"/missing")
	set.Add(filepath.Join(dir, "good2"), srv.URL+"/good2")

	report := New(5*time.Second, 8).FetchAll(context.Background(), set)
	if report.Err() == nil {
		t.Fatal("expected an aggregate error")
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Path != filepath.Join(dir, "bad") {
		t.Fatalf("failed = %+v", failed)
	}
	if report.Succeeded() != 2 {
		t.Errorf("succeeded = %d, want 2", report.Succeeded())
	}
	for _, name := range []string{"good1", "good2"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s was not written: %v", name, err)
		}
	}
}

func TestFetchAllSkipsDirectoryDestination(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	dst := filepath.Join(t.TempDir(), "collides")
	if err := os.Mkdir(dst, 0755); err != nil {
		t.Fatal(err)
	}

	set := domain.NewDownloadSet()
	set.Add(dst, srv.URL+"/x")

	report := New(5*time.Second, 8).FetchAll(context.Background(), set)
	if err := report.Err(); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if !report.Results[0].Skipped {
		t.Error("expected directory destination to be skipped")
	}
}

func TestFetchAllCancelled(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := domain.NewDownloadSet()
	set.Add(filepath.Join(t.TempDir(), "x"), srv.URL+"/x")

	report := New(5*time.Second, 8).FetchAll(ctx, set)
	if report.Err() == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestFetchEntryTicksBarWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(5*time.Second, 2)
	bar := f.countBar(3)
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		res := f.fetchEntry(ctx, filepath.Join(dir, name), "http://127.0.0.1:0/"+name, bar)
		if res.Error == nil {
			t.Fatalf("%s: expected cancellation error", name)
		}
	}

	if got := bar.State().CurrentNum; got != 3 {
		t.Errorf("bar at %d, want 3", got)
	}
}

func TestFetchSingleFile(t *testing.T) {
	payload := strings.Repeat("forge", 1000)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	dst := filepath.Join(t.TempDir(), "nested", "installer.jar")
	if err := New(5*time.Second, 8).Fetch(context.Background(), srv.URL+"/installer.jar", dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != payload {
		t.Errorf("got %d bytes, want %d", len(got), len(payload))
	}

	if err := New(5*time.Second, 8).Fetch(context.Background(), srv.URL+"/x", t.TempDir()); err == nil {
		t.Error("expected error writing to a directory")
	}
}
