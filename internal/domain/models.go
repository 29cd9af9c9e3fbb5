package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Coordinate identifies a library as group:artifact:version. Two coordinates
// name the same dependency when Key matches.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// ParseCoordinate splits a maven style coordinate. A trailing classifier
// (g:a:v:natives-linux) is accepted and dropped.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Coordinate{}, fmt.Errorf("malformed coordinate %q", s)
	}
	return Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}, nil
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact
}

// ClasspathEntry pairs a coordinate string with the file it resolved to.
// An empty Path marks a library whose manifest entry carried no artifact path.
type ClasspathEntry struct {
	Name string
	Path string
}

func (e ClasspathEntry) Resolved() bool {
	return e.Path != ""
}

// DownloadSet maps destination paths to source URLs. Adding a path twice
// keeps the last URL.
type DownloadSet map[string]string

func NewDownloadSet() DownloadSet {
	return make(DownloadSet)
}

func (s DownloadSet) Add(path, url string) {
	s[path] = url
}

// Merge copies other into s; entries of other win on collision.
func (s DownloadSet) Merge(other DownloadSet) {
	for path, url := range other {
		s[path] = url
	}
}

func (s DownloadSet) Len() int {
	return len(s)
}

func (s DownloadSet) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

type FetchResult struct {
	Path    string
	URL     string
	Bytes   int64
	Skipped bool
	Error   error
}

// Report collects the outcome of every entry in a batch fetch.
type Report struct {
	Results []FetchResult
}

func (r *Report) Failed() []FetchResult {
	var failed []FetchResult
	for _, res := range r.Results {
		if res.Error != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Error == nil && !res.Skipped {
			n++
		}
	}
	return n
}

func (r *Report) Bytes() int64 {
	var total int64
	for _, res := range r.Results {
		total += res.Bytes
	}
	return total
}

// Err joins every per-entry failure, or returns nil when all entries succeeded.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", res.URL, res.Error))
	}
	return errors.Join(errs...)
}

type InstanceType string

const (
	InstanceForge   InstanceType = "forge"
	InstanceVanilla InstanceType = "vanilla"
)

type Instance struct {
	UUID        string       `json:"uuid"`
	Name        string       `json:"name"`
	Type        InstanceType `json:"type"`
	Path        string       `json:"path"`
	MCVersion   string       `json:"mc_version"`
	Loader      string       `json:"loader,omitempty"`
	InstalledAt time.Time    `json:"installed_at"`
}

func (i *Instance) ShortID() string {
	return ShortID(i.UUID)
}

// User is an authenticated Minecraft session.
type User struct {
	Name  string `json:"name"`
	Token string `json:"token"`
	ID    string `json:"id"`
}

// Invocation is everything needed to start the game for one instance. It is
// written once per setup and read back on every launch.
type Invocation struct {
	Java         string       `json:"java"`
	BinPath      string       `json:"binpath"`
	CustomArgs   []string     `json:"custom_args"`
	Classpath    []string     `json:"classpaths"`
	MainClass    string       `json:"mainclass"`
	GameArgs     []string     `json:"game_args"`
	InstanceName string       `json:"instance_name"`
	InstanceUUID string       `json:"instance_uuid"`
	InstanceType InstanceType `json:"instance_type"`
	UserName     string       `json:"user_name"`
	AuthToken    string       `json:"auth_token"`
	UserID       string       `json:"id"`
}

// Project is a catalog entry for a mod or modpack.
type Project struct {
	ID       int                      `mapstructure:"id"`
	Title    string                   `mapstructure:"title"`
	Summary  string                   `mapstructure:"summary"`
	URLs     map[string]string        `mapstructure:"urls"`
	Files    []CatalogFile            `mapstructure:"files"`
	Versions map[string][]CatalogFile `mapstructure:"versions"`
}

type CatalogFile struct {
	ID       int      `mapstructure:"id"`
	Display  string   `mapstructure:"display"`
	Name     string   `mapstructure:"name"`
	Type     string   `mapstructure:"type"`
	Version  string   `mapstructure:"version"`
	Versions []string `mapstructure:"versions"`
}
