// Package runtime downloads and unpacks Eclipse Temurin JREs so instances
// can run without a system Java.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/version"
)

const DefaultAPIURL = "https://api.adoptium.net"

var osNames = map[string]string{
	"linux":   "linux",
	"darwin":  "mac",
	"windows": "windows",
}

var archNames = map[string]string{
	"amd64": "x64",
	"arm64": "aarch64",
	"386":   "x32",
}

// Release is one downloadable JRE build.
type Release struct {
	Name    string
	Major   int
	Package string
	URL     string
	Size    int64
}

type assetsResponse []struct {
	ReleaseName string `json:"release_name"`
	Binary      struct {
		Package struct {
			Name string `json:"name"`
			Link string `json:"link"`
			Size int64  `json:"size"`
		} `json:"package"`
	} `json:"binary"`
}

type Runtimes struct {
	apiURL    string
	dir       string
	client    *http.Client
	fetcher   domain.Fetcher
	cache     domain.Cache
	extractor domain.Extractor
	logger    *log.Logger
}

func New(apiURL, dir string, client *http.Client, fetcher domain.Fetcher, cache domain.Cache, extractor domain.Extractor, logger *log.Logger) *Runtimes {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runtimes{
		apiURL:    apiURL,
		dir:       dir,
		client:    client,
		fetcher:   fetcher,
		cache:     cache,
		extractor: extractor,
		logger:    logger,
	}
}

// Resolve looks up the latest GA JRE for a Java major version on the given
// platform.
func (r *Runtimes) Resolve(ctx context.Context, major int, goos, goarch string) (*Release, error) {
	osName, ok := osNames[goos]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOS, goos)
	}
	arch, ok := archNames[goarch]
	if !ok {
		return nil, fmt.Errorf("unsupported architecture: %s", goarch)
	}

	q := url.Values{}
	q.Set("architecture", arch)
	q.Set("image_type", "jre")
	q.Set("os", osName)
	q.Set("vendor", "eclipse")
	endpoint := fmt.Sprintf("%s/v3/assets/latest/%d/hotspot?%s", r.apiURL, major, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "sml/"+version.Version)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying java runtimes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("querying java runtimes: unexpected status %d: %s", resp.StatusCode, body)
	}

	var assets assetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&assets); err != nil {
		return nil, fmt.Errorf("decoding java runtimes: %w", err)
	}
	if len(assets) == 0 || assets[0].Binary.Package.Link == "" {
		return nil, fmt.Errorf("no java %d runtime for %s/%s: %w", major, goos, goarch, domain.ErrNotFound)
	}

	a := assets[0]
	return &Release{
		Name:    a.ReleaseName,
		Major:   major,
		Package: a.Binary.Package.Name,
		URL:     a.Binary.Package.Link,
		Size:    a.Binary.Package.Size,
	}, nil
}

// Dir is where the runtime for a major version is unpacked.
func (r *Runtimes) Dir(major int) string {
	return filepath.Join(r.dir, strconv.Itoa(major))
}

// Installed returns the java binary of an already unpacked runtime.
func (r *Runtimes) Installed(major int) (string, bool) {
	java, err := FindJava(r.Dir(major))
	return java, err == nil
}

// Install makes sure a JRE for major is unpacked and returns its java
// binary. The archive goes through the cache so reinstalls stay offline.
func (r *Runtimes) Install(ctx context.Context, major int) (string, error) {
	if java, ok := r.Installed(major); ok {
		return java, nil
	}

	rel, err := r.Resolve(ctx, major, goruntime.GOOS, goruntime.GOARCH)
	if err != nil {
		return "", err
	}

	r.logger.Info("downloading java runtime", "release", rel.Name, "package", rel.Package)
	archive, err := r.cache.Fetch(ctx, r.fetcher, "java-runtime", rel.Name, rel.URL)
	if err != nil {
		return "", err
	}

	dst := r.Dir(major)
	if err := os.RemoveAll(dst); err != nil {
		return "", err
	}
	if err := r.extractor.ExtractStripped(archive, dst); err != nil {
		os.RemoveAll(dst)
		return "", fmt.Errorf("unpacking %s: %w", rel.Package, err)
	}

	return FindJava(dst)
}

// javaLayouts are the places a runtime build keeps its launcher once the
// top-level directory is stripped. macOS builds are app bundles.
var javaLayouts = [][]string{
	{"bin"},
	{"Contents", "Home", "bin"},
}

// FindJava returns the java binary (java.exe on windows) of the runtime
// unpacked in dir.
func FindJava(dir string) (string, error) {
	name := "java"
	if goruntime.GOOS == "windows" {
		name = "java.exe"
	}

	for _, layout := range javaLayouts {
		path := filepath.Join(append(append([]string{dir}, layout...), name)...)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s in %s: %w", filepath.Join("bin", name), dir, domain.ErrNotFound)
}
