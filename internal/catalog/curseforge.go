package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/teamcutter/sml/internal/domain"
)

const (
	DefaultCurseForgeURL = "https://api.cfwidget.com/"
	DefaultTTL           = 10 * time.Minute
	memoSize             = 256
)

// CurseForge reads project metadata from the cfwidget mirror of the
// CurseForge catalog. Responses are memoised in memory and cached on disk
// for ttl.
type CurseForge struct {
	sync.RWMutex
	client   *http.Client
	baseURL  string
	cacheDir string
	ttl      time.Duration
	memo     *lru.Cache[int, *domain.Project]
	logger   *log.Logger
}

type Option func(*CurseForge)

func WithClient(c *http.Client) Option {
	return func(cf *CurseForge) { cf.client = c }
}

func WithLogger(l *log.Logger) Option {
	return func(cf *CurseForge) { cf.logger = l }
}

// WithTTL sets how long on-disk responses stay fresh. Zero disables the disk
// cache.
func WithTTL(ttl time.Duration) Option {
	return func(cf *CurseForge) { cf.ttl = ttl }
}

func NewCurseForge(baseURL, cacheDir string, opts ...Option) (*CurseForge, error) {
	memo, err := lru.New[int, *domain.Project](memoSize)
	if err != nil {
		return nil, err
	}

	if baseURL == "" {
		baseURL = DefaultCurseForgeURL
	}

	cf := &CurseForge{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  baseURL,
		cacheDir: cacheDir,
		ttl:      DefaultTTL,
		memo:     memo,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(cf)
	}
	return cf, nil
}

func (cf *CurseForge) Project(ctx context.Context, id int) (*domain.Project, error) {
	if p, ok := cf.memo.Get(id); ok {
		return p, nil
	}

	if cached, ok := cf.getFromCache(id); ok {
		if p, err := decodeProject(cached); err == nil {
			cf.memo.Add(id, p)
			return p, nil
		}
	}

	data, err := getBytes(ctx, cf.client, cf.baseURL+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", id, err)
	}

	p, err := decodeProject(data)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", id, err)
	}

	if err := cf.storeToCache(id, data); err != nil {
		cf.logger.Debug("could not cache catalog response", "project", id, "err", err)
	}
	cf.memo.Add(id, p)
	return p, nil
}

// decodeProject accepts both the flat files[] shape and the shape where
// files are grouped by game version under "versions".
func decodeProject(data []byte) (*domain.Project, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if msg, ok := raw["error"]; ok {
		return nil, fmt.Errorf("catalog error: %v", msg)
	}

	if _, ok := raw["versions"].(map[string]any); !ok {
		delete(raw, "versions")
	}
	if _, ok := raw["files"].([]any); !ok {
		delete(raw, "files")
	}

	var p domain.Project
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &p, nil
}

func (cf *CurseForge) cachePath(id int) string {
	return filepath.Join(cf.cacheDir, "catalog", strconv.Itoa(id)+".json")
}

func (cf *CurseForge) getFromCache(id int) ([]byte, bool) {
	if cf.cacheDir == "" || cf.ttl <= 0 {
		return nil, false
	}

	cf.RLock()
	defer cf.RUnlock()

	path := cf.cachePath(id)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > cf.ttl {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

func (cf *CurseForge) storeToCache(id int, data []byte) error {
	if cf.cacheDir == "" || cf.ttl <= 0 {
		return nil
	}

	cf.Lock()
	defer cf.Unlock()

	path := cf.cachePath(id)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
