package resolver

import (
	"fmt"
	"path/filepath"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

// NativesClassifier maps a GOOS value to the classifier key used by version
// manifests.
func NativesClassifier(goos string) (string, error) {
	switch goos {
	case "windows":
		return "natives-windows", nil
	case "darwin":
		return "natives-macos", nil
	case "linux":
		return "natives-linux", nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedOS, goos)
	}
}

// Natives emits the platform native archives of m under libRoot and returns
// their destination paths for extraction. An unknown goos fails the whole
// category.
func (r *Resolver) Natives(libRoot string, m *manifest.Version, goos string) (domain.DownloadSet, []string, error) {
	classifier, err := NativesClassifier(goos)
	if err != nil {
		return nil, nil, err
	}

	set := domain.NewDownloadSet()
	var archives []string

	for _, lib := range m.Libraries {
		a := lib.Classifier(classifier)
		if a == nil {
			continue
		}
		if a.URL == "" || a.Path == "" {
			r.logger.Warn("native has no url or path, skipping", "library", lib.Name, "classifier", classifier)
			continue
		}

		dst := filepath.Join(libRoot, filepath.FromSlash(a.Path))
		if _, seen := set[dst]; !seen {
			archives = append(archives, dst)
		}
		set.Add(dst, a.URL)
	}

	return set, archives, nil
}
