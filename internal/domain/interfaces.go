package domain

import (
	"context"
)

type Fetcher interface {
	FetchAll(ctx context.Context, set DownloadSet) *Report
	Fetch(ctx context.Context, url, dst string) error
}

type Cache interface {
	Has(name, version string) bool
	GetPath(name, version string) string
	Store(name, version, src string) (string, error)
	Fetch(ctx context.Context, f Fetcher, name, version, url string) (string, error)
	Size() (int64, error)
	Clear() error
}

type Extractor interface {
	Extract(src, dest string) error
	ExtractStripped(src, dest string) error
	ExtractNatives(archives []string, binDir string) error
}

type State interface {
	BeginInstall(inst *Instance) error
	Add(inst *Instance) error
	Get(uuid string) (*Instance, error)
	List() ([]*Instance, error)
	Remove(uuid string) error
	Rename(uuid, name string) error
}

type Catalog interface {
	Project(ctx context.Context, id int) (*Project, error)
}
