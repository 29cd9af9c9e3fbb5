package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

// Mods looks up every file of pack in the catalog and emits
// <modsDir>/<file name> for each one found. Lookups run concurrently, bounded
// by the resolver's parallelism. A project that cannot be looked up or has no
// matching file is logged and skipped.
func (r *Resolver) Mods(ctx context.Context, mcVersion, modsDir string, pack *manifest.Pack) domain.DownloadSet {
	fragments := make([]domain.DownloadSet, len(pack.Files))

	g := new(errgroup.Group)
	g.SetLimit(r.parallel)

	for i, pf := range pack.Files {
		g.Go(func() error {
			file, err := r.lookup(ctx, pf, mcVersion)
			if err != nil {
				r.logger.Warn("skipping mod", "project", pf.ProjectID, "file", pf.FileID, "err", err)
				return nil
			}
			frag := domain.NewDownloadSet()
			frag.Add(filepath.Join(modsDir, file.Name), DownloadURL(r.cdnURL, file.ID, file.Name))
			fragments[i] = frag
			return nil
		})
	}
	_ = g.Wait()

	set := domain.NewDownloadSet()
	for _, frag := range fragments {
		if frag != nil {
			set.Merge(frag)
		}
	}
	return set
}

func (r *Resolver) lookup(ctx context.Context, pf manifest.PackFile, mcVersion string) (domain.CatalogFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.CatalogFile{}, err
	}

	project, err := r.catalog.Project(ctx, pf.ProjectID)
	if err != nil {
		return domain.CatalogFile{}, err
	}
	if project.Files == nil && project.Versions == nil {
		return domain.CatalogFile{}, fmt.Errorf("catalog entry has no files")
	}

	file, ok := SelectFile(project, pf.FileID, mcVersion)
	if !ok {
		return domain.CatalogFile{}, fmt.Errorf("no file %d or file for %s", pf.FileID, mcVersion)
	}
	if file.Name == "" || file.ID == 0 {
		return domain.CatalogFile{}, fmt.Errorf("catalog file %d is incomplete", file.ID)
	}
	if !safeFileName(file.Name) {
		return domain.CatalogFile{}, fmt.Errorf("catalog file %d has unsafe name %q", file.ID, file.Name)
	}
	return file, nil
}

// safeFileName reports whether name stays inside the directory it is joined
// to.
func safeFileName(name string) bool {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// SelectFile picks the catalog file for fileID. The versions keyed shape is
// searched before the flat file list; when neither holds fileID the first
// file compatible with mcVersion is used.
func SelectFile(p *domain.Project, fileID int, mcVersion string) (domain.CatalogFile, bool) {
	for _, f := range p.Versions[mcVersion] {
		if f.ID == fileID {
			return f, true
		}
	}

	for _, f := range p.Files {
		if f.ID == fileID {
			return f, true
		}
	}

	for _, f := range p.Files {
		if slices.Contains(f.Versions, mcVersion) {
			return f, true
		}
	}

	if files := p.Versions[mcVersion]; len(files) > 0 {
		return files[0], true
	}

	return domain.CatalogFile{}, false
}

// DownloadURL builds the CDN location of a catalog file. Files are bucketed
// by id/1000 and id%1000; a literal "+" in the name becomes %2B before spaces
// become "+".
func DownloadURL(cdnBase string, id int, name string) string {
	escaped := strings.ReplaceAll(name, "+", "%2B")
	escaped = strings.ReplaceAll(escaped, " ", "+")
	return fmt.Sprintf("%s/files/%d/%d/%s", strings.TrimSuffix(cdnBase, "/"), id/1000, id%1000, escaped)
}
