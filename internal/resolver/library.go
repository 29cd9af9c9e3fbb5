package resolver

import (
	"path/filepath"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

// Libraries emits libRoot/<artifact path> for every library that carries both
// an artifact path and URL. Other libraries are skipped here; they still
// appear on the classpath.
func (r *Resolver) Libraries(libRoot string, m *manifest.Version) domain.DownloadSet {
	set := domain.NewDownloadSet()

	for _, lib := range m.Libraries {
		path, url := lib.ArtifactPath(), lib.ArtifactURL()
		if path == "" || url == "" {
			r.logger.Debug("library not downloadable, skipping", "library", lib.Name)
			continue
		}
		set.Add(filepath.Join(libRoot, filepath.FromSlash(path)), url)
	}

	return set
}

// Client emits the game client jar as <gameDir>/client.jar.
func (r *Resolver) Client(gameDir string, m *manifest.Version) domain.DownloadSet {
	set := domain.NewDownloadSet()
	if m.Downloads.Client != nil && m.Downloads.Client.URL != "" {
		set.Add(filepath.Join(gameDir, "client.jar"), m.Downloads.Client.URL)
	}
	return set
}
