// Package resolver turns version manifests, asset indexes and modpack
// manifests into DownloadSet fragments. Resolvers never write files; the
// only network traffic they cause is fetching asset indexes and catalog
// lookups, both of which must finish before the URLs of the bulk downloads
// are known.
package resolver

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/teamcutter/sml/internal/domain"
)

const (
	DefaultAssetsURL = "http://resources.download.minecraft.net"
	DefaultCDNURL    = "https://media.forgecdn.net"
)

type Resolver struct {
	client    *http.Client
	catalog   domain.Catalog
	assetsURL string
	cdnURL    string
	parallel  int
	logger    *log.Logger
}

type Option func(*Resolver)

func WithClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

func WithAssetsURL(url string) Option {
	return func(r *Resolver) { r.assetsURL = strings.TrimSuffix(url, "/") }
}

func WithCDNURL(url string) Option {
	return func(r *Resolver) { r.cdnURL = strings.TrimSuffix(url, "/") }
}

// WithParallel bounds concurrent catalog lookups in Mods.
func WithParallel(n int) Option {
	return func(r *Resolver) { r.parallel = n }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func New(catalog domain.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		client:    &http.Client{Timeout: 60 * time.Second},
		catalog:   catalog,
		assetsURL: DefaultAssetsURL,
		cdnURL:    DefaultCDNURL,
		parallel:  8,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallel <= 0 {
		r.parallel = 1
	}
	return r
}
