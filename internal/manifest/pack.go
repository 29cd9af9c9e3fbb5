package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Pack is the manifest.json shipped inside a CurseForge modpack archive.
type Pack struct {
	Minecraft struct {
		Version    string      `json:"version"`
		ModLoaders []ModLoader `json:"modLoaders"`
	} `json:"minecraft"`
	ManifestType    string     `json:"manifestType"`
	ManifestVersion int        `json:"manifestVersion"`
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	Author          string     `json:"author"`
	Files           []PackFile `json:"files"`
	Overrides       string     `json:"overrides"`
}

type ModLoader struct {
	ID      string `json:"id"`
	Primary bool   `json:"primary"`
}

type PackFile struct {
	ProjectID int  `json:"projectID"`
	FileID    int  `json:"fileID"`
	Required  bool `json:"required"`
}

func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pack manifest: %w", err)
	}

	var p Pack
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding pack manifest: %w", err)
	}
	return &p, nil
}

// LoaderID returns the id of the primary mod loader, falling back to the
// first one listed.
func (p *Pack) LoaderID() string {
	for _, l := range p.Minecraft.ModLoaders {
		if l.Primary {
			return l.ID
		}
	}
	if len(p.Minecraft.ModLoaders) > 0 {
		return p.Minecraft.ModLoaders[0].ID
	}
	return ""
}

// OverridesDir is the name of the overrides folder inside the archive.
func (p *Pack) OverridesDir() string {
	if p.Overrides == "" {
		return "overrides"
	}
	return p.Overrides
}

// SplitLoaderID separates a loader id like "forge-36.2.0" into its name and
// version.
func SplitLoaderID(id string) (name, version string) {
	name, version, _ = strings.Cut(id, "-")
	return name, version
}
