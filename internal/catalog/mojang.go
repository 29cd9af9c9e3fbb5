package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/teamcutter/sml/internal/domain"
)

const DefaultVersionManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

type Mojang struct {
	client *http.Client
	url    string
}

type VersionList struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionEntry `json:"versions"`
}

type VersionEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	ReleaseTime time.Time `json:"releaseTime"`
}

func NewMojang(url string, client *http.Client) *Mojang {
	if url == "" {
		url = DefaultVersionManifestURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Mojang{client: client, url: url}
}

func (m *Mojang) Versions(ctx context.Context) (*VersionList, error) {
	data, err := getBytes(ctx, m.client, m.url)
	if err != nil {
		return nil, fmt.Errorf("version manifest: %w", err)
	}

	var list VersionList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding version manifest: %w", err)
	}
	return &list, nil
}

// Version finds the entry for id. "latest" and "snapshot" resolve to the
// current release and snapshot.
func (m *Mojang) Version(ctx context.Context, id string) (*VersionEntry, error) {
	list, err := m.Versions(ctx)
	if err != nil {
		return nil, err
	}

	switch id {
	case "latest":
		id = list.Latest.Release
	case "snapshot":
		id = list.Latest.Snapshot
	}

	for i := range list.Versions {
		if list.Versions[i].ID == id {
			return &list.Versions[i], nil
		}
	}
	return nil, fmt.Errorf("minecraft version %q: %w", id, domain.ErrNotFound)
}
