package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
	"github.com/teamcutter/sml/internal/version"
)

// Assets fetches the asset index named by m and returns the index file itself
// plus one entry per object, stored content addressed under
// <gameDir>/assets/objects/<hash[0:2]>/<hash>.
func (r *Resolver) Assets(ctx context.Context, gameDir string, m *manifest.Version) (domain.DownloadSet, error) {
	objects, err := r.AssetIndex(ctx, m)
	if err != nil {
		return nil, err
	}
	return r.AssetDownloads(gameDir, m.AssetIndex, objects), nil
}

// AssetIndex fetches and decodes the asset index of m.
func (r *Resolver) AssetIndex(ctx context.Context, m *manifest.Version) (*manifest.AssetObjects, error) {
	if m.AssetIndex == nil || m.AssetIndex.URL == "" {
		return nil, domain.ErrMissingAssetIndex
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.AssetIndex.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "sml/"+version.Version)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching asset index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching asset index: unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading asset index: %w", err)
	}
	return manifest.ParseAssetObjects(data)
}

func (r *Resolver) AssetDownloads(gameDir string, index *manifest.AssetIndex, objects *manifest.AssetObjects) domain.DownloadSet {
	set := domain.NewDownloadSet()
	assets := filepath.Join(gameDir, "assets")

	set.Add(filepath.Join(assets, "indexes", index.ID+".json"), index.URL)

	for name, obj := range objects.Objects {
		if len(obj.Hash) < 2 {
			r.logger.Warn("asset has invalid hash, skipping", "asset", name, "hash", obj.Hash)
			continue
		}
		prefix := obj.Hash[:2]
		set.Add(
			filepath.Join(assets, "objects", prefix, obj.Hash),
			fmt.Sprintf("%s/%s/%s", r.assetsURL, prefix, obj.Hash),
		)
	}

	return set
}
