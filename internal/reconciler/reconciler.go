// Package reconciler merges the library lists of several version manifests
// into one ordered, deduplicated classpath.
//
// Manifests are processed in call order, base game first and loader overlay
// second. A library with a download URL replaces an earlier library with the
// same group and artifact when its version compares greater or equal, and is
// dropped otherwise. A library without a URL, such as the loader's own jar, is
// always appended.
package reconciler

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

const VersionJarName = "version_jar"

type Reconciler struct {
	libRoot    string
	compare    Comparator
	versionJar bool
	logger     *log.Logger
}

type Option func(*Reconciler)

func WithComparator(c Comparator) Option {
	return func(r *Reconciler) { r.compare = c }
}

// WithVersionJar adds a version_jar entry ahead of a manifest's libraries
// when the manifest has a sibling .jar on disk.
func WithVersionJar(enabled bool) Option {
	return func(r *Reconciler) { r.versionJar = enabled }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// New returns a reconciler resolving artifact paths under libRoot. The
// comparator defaults to Numeric.
func New(libRoot string, opts ...Option) *Reconciler {
	r := &Reconciler{
		libRoot: libRoot,
		compare: Numeric,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile loads each manifest path in order and merges their libraries.
func (r *Reconciler) Reconcile(paths []string) ([]domain.ClasspathEntry, error) {
	manifests := make([]*manifest.Version, 0, len(paths))
	for _, p := range paths {
		m, err := manifest.LoadVersion(p)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return r.ReconcileManifests(manifests)
}

func (r *Reconciler) ReconcileManifests(manifests []*manifest.Version) ([]domain.ClasspathEntry, error) {
	idx := newOrderedIndex()

	for _, m := range manifests {
		if r.versionJar && m.Path() != "" {
			if jar, ok := versionJar(m.Path()); ok {
				idx.append(domain.ClasspathEntry{Name: VersionJarName, Path: jar})
			}
		}

		for _, lib := range m.Libraries {
			coord, err := domain.ParseCoordinate(lib.Name)
			if err != nil {
				return nil, err
			}

			entry := domain.ClasspathEntry{Name: coord.String()}
			if p := lib.ArtifactPath(); p != "" {
				entry.Path = filepath.Join(r.libRoot, p)
			} else {
				r.logger.Warn("library has no artifact path", "library", coord.String())
			}

			if lib.ArtifactURL() == "" {
				idx.append(entry)
				continue
			}

			prev, ok := idx.lookup(coord.Key())
			if !ok {
				idx.put(coord.Key(), coord.Version, entry)
				continue
			}

			if r.compare(coord.Version, prev.version) >= 0 {
				r.logger.Debug("replacing library", "library", coord.Key(), "old", prev.version, "new", coord.Version)
				idx.remove(coord.Key())
				idx.put(coord.Key(), coord.Version, entry)
			} else {
				r.logger.Debug("keeping newer library", "library", coord.Key(), "kept", prev.version, "dropped", coord.Version)
			}
		}
	}

	return idx.entries(), nil
}

// Paths returns the resolved paths of entries, skipping unresolved ones.
func Paths(entries []domain.ClasspathEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Resolved() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

func versionJar(manifestPath string) (string, bool) {
	jar := manifest.JarPath(manifestPath)
	if info, err := os.Stat(jar); err != nil || info.IsDir() {
		return "", false
	}
	id := filepath.Base(filepath.Dir(jar))
	return filepath.Join(".", "versions", id, filepath.Base(jar)), true
}
