// Package manifest decodes the JSON documents a launcher consumes: version
// descriptors, asset indexes and CurseForge modpack manifests. Decoded values
// are treated as read-only by every consumer.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrNoLibraries = errors.New("manifest has no libraries array")

type Version struct {
	ID                 string       `json:"id"`
	InheritsFrom       string       `json:"inheritsFrom,omitempty"`
	Type               string       `json:"type"`
	MainClass          string       `json:"mainClass"`
	MinecraftArguments string       `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments   `json:"arguments,omitempty"`
	Assets             string       `json:"assets,omitempty"`
	AssetIndex         *AssetIndex  `json:"assetIndex,omitempty"`
	Libraries          []Library    `json:"libraries"`
	Downloads          Downloads    `json:"downloads"`
	JavaVersion        *JavaVersion `json:"javaVersion,omitempty"`

	path string
}

type Arguments struct {
	Game []json.RawMessage `json:"game"`
	JVM  []json.RawMessage `json:"jvm"`
}

type AssetIndex struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
}

type Downloads struct {
	Client *Artifact `json:"client,omitempty"`
	Server *Artifact `json:"server,omitempty"`
}

type JavaVersion struct {
	Component    string `json:"component"`
	MajorVersion int    `json:"majorVersion"`
}

type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
}

type LibraryDownloads struct {
	Artifact    *Artifact            `json:"artifact,omitempty"`
	Classifiers map[string]*Artifact `json:"classifiers,omitempty"`
}

type Artifact struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
}

// ArtifactPath returns downloads.artifact.path, or "" when the entry has none.
func (l Library) ArtifactPath() string {
	if l.Downloads == nil || l.Downloads.Artifact == nil {
		return ""
	}
	return l.Downloads.Artifact.Path
}

func (l Library) ArtifactURL() string {
	if l.Downloads == nil || l.Downloads.Artifact == nil {
		return ""
	}
	return l.Downloads.Artifact.URL
}

// Classifier returns the classifier artifact for id, or nil.
func (l Library) Classifier(id string) *Artifact {
	if l.Downloads == nil || l.Downloads.Classifiers == nil {
		return nil
	}
	return l.Downloads.Classifiers[id]
}

func LoadVersion(path string) (*Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading version manifest: %w", err)
	}

	v, err := ParseVersion(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	v.path = path
	return v, nil
}

func ParseVersion(data []byte) (*Version, error) {
	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding version manifest: %w", err)
	}
	if v.Libraries == nil {
		return nil, ErrNoLibraries
	}
	return &v, nil
}

// Path is the file the manifest was loaded from, empty for parsed bytes.
func (v *Version) Path() string {
	return v.path
}

// GameArguments returns the plain string entries of arguments.game. Rule
// objects are skipped.
func (v *Version) GameArguments() []string {
	if v.Arguments == nil {
		return nil
	}

	var args []string
	for _, raw := range v.Arguments.Game {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			args = append(args, s)
		}
	}
	return args
}

// JavaMajor reports the Java major version the manifest asks for. Manifests
// older than the javaVersion field run on Java 8.
func (v *Version) JavaMajor() int {
	if v.JavaVersion == nil || v.JavaVersion.MajorVersion == 0 {
		return 8
	}
	return v.JavaVersion.MajorVersion
}

// VersionPath is the conventional location of a version descriptor inside a
// game directory: versions/<id>/<id>.json.
func VersionPath(gameDir, id string) string {
	return filepath.Join(gameDir, "versions", id, id+".json")
}

// ForgeVersionID is the id the Forge installer gives its version descriptor.
func ForgeVersionID(mcVersion, forgeVersion string) string {
	return mcVersion + "-forge-" + forgeVersion
}

// JarPath returns the sibling .jar of a version manifest path.
func JarPath(manifestPath string) string {
	return strings.TrimSuffix(manifestPath, filepath.Ext(manifestPath)) + ".jar"
}
