package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/version"
)

const (
	DefaultParallel = 8
	DefaultTimeout  = 300 * time.Second
)

type HTTPFetcher struct {
	client   *http.Client
	parallel int
	logger   *log.Logger
	progress io.Writer
}

type Option func(*HTTPFetcher)

func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

func WithLogger(l *log.Logger) Option {
	return func(f *HTTPFetcher) { f.logger = l }
}

// WithProgress draws progress bars on w. Without it fetches are silent.
func WithProgress(w io.Writer) Option {
	return func(f *HTTPFetcher) { f.progress = w }
}

func New(timeout time.Duration, parallel int, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if parallel <= 0 {
		parallel = DefaultParallel
	}

	f := &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		parallel: parallel,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll downloads every entry of set with at most f.parallel requests in
// flight. Each body is read fully into memory and written to its path, parent
// directories are created as needed. A failing entry does not stop the
// others; FetchAll returns once every entry has been attempted and the
// report carries one result per entry.
func (f *HTTPFetcher) FetchAll(ctx context.Context, set domain.DownloadSet) *domain.Report {
	paths := set.Paths()
	results := make([]domain.FetchResult, len(paths))
	bar := f.countBar(len(paths))

	g := new(errgroup.Group)
	g.SetLimit(f.parallel)

	for i, path := range paths {
		url := set[path]
		g.Go(func() error {
			results[i] = f.fetchEntry(ctx, path, url, bar)
			return nil
		})
	}
	_ = g.Wait()
	bar.Finish()

	return &domain.Report{Results: results}
}

// fetchEntry fetches one batch entry and ticks bar whether it ran, failed or
// was cancelled before starting.
func (f *HTTPFetcher) fetchEntry(ctx context.Context, path, url string, bar *progressbar.ProgressBar) domain.FetchResult {
	defer bar.Add(1)

	if err := ctx.Err(); err != nil {
		return domain.FetchResult{Path: path, URL: url, Error: err}
	}
	return f.fetchOne(ctx, path, url)
}

func (f *HTTPFetcher) fetchOne(ctx context.Context, dst, url string) domain.FetchResult {
	res := domain.FetchResult{Path: dst, URL: url}

	resp, err := f.get(ctx, url)
	if err != nil {
		res.Error = err
		return res
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		res.Error = fmt.Errorf("reading body: %w", err)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		res.Error = err
		return res
	}

	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		f.logger.Warn("destination is a directory, skipping", "path", dst, "url", url)
		res.Skipped = true
		return res
	}

	if err := os.WriteFile(dst, body, 0644); err != nil {
		res.Error = err
		return res
	}

	res.Bytes = int64(len(body))
	f.logger.Debug("downloaded", "path", dst, "bytes", res.Bytes)
	return res
}

// Fetch streams a single file to dst. Used for installer jars and modpack
// archives, which are fetched on their own before the batch.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dst string) error {
	resp, err := f.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	file, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer file.Close()

	bar := f.bytesBar(resp.ContentLength, fmt.Sprintf("Downloading %s", filepath.Base(dst)))
	if _, err := io.Copy(io.MultiWriter(file, bar), resp.Body); err != nil {
		os.Remove(dst)
		return err
	}
	bar.Finish()

	return nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "sml/"+version.Version)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return resp, nil
}

func (f *HTTPFetcher) countBar(n int) *progressbar.ProgressBar {
	w := f.progress
	if w == nil {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Downloading files"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (f *HTTPFetcher) bytesBar(size int64, desc string) *progressbar.ProgressBar {
	if f.progress == nil {
		return progressbar.DefaultBytesSilent(size, desc)
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}
