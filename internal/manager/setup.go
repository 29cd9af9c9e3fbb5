package manager

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/invoker"
	"github.com/teamcutter/sml/internal/loader"
	"github.com/teamcutter/sml/internal/manifest"
	"github.com/teamcutter/sml/internal/reconciler"
	"github.com/teamcutter/sml/internal/resolver"
)

// Directory names inside an instance. The classpath and launch arguments
// refer to them relative to the instance root, which is the game's working
// directory.
const (
	librariesDir = "libraries"
	nativesDir   = "bin"
	modsDir      = "mods"
	assetsDir    = "assets"
)

// InstallPack sets up a Forge modpack from the catalog. fileIndex selects
// one of the project's files. On failure the partially built instance is
// removed.
func (m *Manager) InstallPack(ctx context.Context, projectID, fileIndex int, user *domain.User) (inst *domain.Instance, err error) {
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}

	project, err := m.catalog.Project(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, err)
	}
	if fileIndex < 0 || fileIndex >= len(project.Files) {
		return nil, fmt.Errorf("file %d out of range, %s has %d files", fileIndex, project.Title, len(project.Files))
	}
	file := project.Files[fileIndex]

	inst, err = m.begin(file.Display, domain.InstanceForge)
	if err != nil {
		return nil, err
	}
	created := inst
	defer func() {
		if err != nil {
			m.abort(created)
		}
	}()

	mods := filepath.Join(inst.Path, modsDir)
	pack, err := m.fetchPack(ctx, projectID, file, mods)
	if err != nil {
		return nil, err
	}

	forge, err := loader.ParseForge(pack)
	if err != nil {
		return nil, err
	}
	inst.MCVersion = forge.MCVersion
	inst.Loader = "forge-" + forge.Version

	vanilla, err := m.vanillaManifest(ctx, inst.Path, forge.MCVersion)
	if err != nil {
		return nil, err
	}
	java, err := m.javaFor(ctx, vanilla)
	if err != nil {
		return nil, err
	}

	if err := m.installer.WithJava(java).Install(ctx, inst.Path, forge); err != nil {
		return nil, err
	}
	forgeManifest, err := manifest.LoadVersion(manifest.VersionPath(inst.Path, forge.VersionID()))
	if err != nil {
		return nil, fmt.Errorf("forge installer output: %w", err)
	}

	libRoot := filepath.Join(inst.Path, librariesDir)
	fragments := make([]domain.DownloadSet, 5)
	var natives []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fragments[0] = m.resolver.Libraries(libRoot, vanilla)
		return nil
	})
	g.Go(func() error {
		fragments[1] = m.resolver.Libraries(libRoot, forgeManifest)
		return nil
	})
	g.Go(func() error {
		fragments[2] = m.resolver.Mods(gctx, forge.MCVersion, mods, pack)
		return nil
	})
	g.Go(func() error {
		set, err := m.resolver.Assets(gctx, inst.Path, vanilla)
		fragments[3] = set
		return err
	})
	g.Go(func() error {
		set, archives, err := m.resolver.Natives(libRoot, vanilla, goruntime.GOOS)
		fragments[4], natives = set, archives
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	downloads := domain.NewDownloadSet()
	for _, f := range fragments {
		downloads.Merge(f)
	}
	if forge.Legacy() {
		downloads.Merge(loader.LegacyLibraries(libRoot))
	}

	if err := m.download(ctx, downloads); err != nil {
		return nil, err
	}
	if err := m.extractor.ExtractNatives(natives, filepath.Join(inst.Path, nativesDir)); err != nil {
		return nil, err
	}
	if err := copyTree(filepath.Join(mods, pack.OverridesDir()), inst.Path); err != nil {
		return nil, fmt.Errorf("copying overrides: %w", err)
	}

	entries, err := reconciler.New(librariesDir,
		reconciler.WithComparator(m.compare),
		reconciler.WithVersionJar(true),
		reconciler.WithLogger(m.logger),
	).ReconcileManifests([]*manifest.Version{vanilla, forgeManifest})
	if err != nil {
		return nil, err
	}
	classpath := reconciler.Paths(entries)
	if forge.Legacy() {
		classpath = append(classpath, loader.LegacyLibraries(librariesDir).Paths()...)
	}

	mainClass := forgeManifest.MainClass
	if mainClass == "" {
		mainClass = vanilla.MainClass
	}

	inv := &domain.Invocation{
		Java:      java,
		BinPath:   filepath.Join(inst.Path, nativesDir),
		Classpath: classpath,
		MainClass: mainClass,
		GameArgs: invoker.GameArgs(
			[]*manifest.Version{vanilla, forgeManifest},
			forge.Legacy(),
			gameValues(inst, vanilla, forge.VersionID()),
		),
	}
	if err := m.finish(inst, inv, user); err != nil {
		return nil, err
	}
	return inst, nil
}

// InstallVanilla sets up an unmodded instance of a game version. id may be
// "latest" or "snapshot".
func (m *Manager) InstallVanilla(ctx context.Context, id string, user *domain.User) (inst *domain.Instance, err error) {
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}

	entry, err := m.versions.Version(ctx, id)
	if err != nil {
		return nil, err
	}

	inst, err = m.begin(entry.ID, domain.InstanceVanilla)
	if err != nil {
		return nil, err
	}
	created := inst
	defer func() {
		if err != nil {
			m.abort(created)
		}
	}()
	inst.MCVersion = entry.ID

	path := manifest.VersionPath(inst.Path, entry.ID)
	if err := m.fetcher.Fetch(ctx, entry.URL, path); err != nil {
		return nil, fmt.Errorf("version descriptor: %w", err)
	}
	vanilla, err := manifest.LoadVersion(path)
	if err != nil {
		return nil, err
	}
	java, err := m.javaFor(ctx, vanilla)
	if err != nil {
		return nil, err
	}

	libRoot := filepath.Join(inst.Path, librariesDir)
	var (
		assets  domain.DownloadSet
		natives domain.DownloadSet
		archive []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assets, err = m.resolver.Assets(gctx, inst.Path, vanilla)
		return err
	})
	g.Go(func() (err error) {
		natives, archive, err = m.resolver.Natives(libRoot, vanilla, goruntime.GOOS)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	downloads := m.resolver.Libraries(libRoot, vanilla)
	downloads.Merge(m.resolver.Client(inst.Path, vanilla))
	downloads.Merge(assets)
	downloads.Merge(natives)

	if err := m.download(ctx, downloads); err != nil {
		return nil, err
	}
	if err := m.extractor.ExtractNatives(archive, filepath.Join(inst.Path, nativesDir)); err != nil {
		return nil, err
	}

	entries, err := reconciler.New(librariesDir,
		reconciler.WithComparator(m.compare),
		reconciler.WithLogger(m.logger),
	).ReconcileManifests([]*manifest.Version{vanilla})
	if err != nil {
		return nil, err
	}

	inv := &domain.Invocation{
		Java:      java,
		BinPath:   filepath.Join(inst.Path, nativesDir),
		Classpath: append(reconciler.Paths(entries), "client.jar"),
		MainClass: vanilla.MainClass,
		GameArgs: invoker.GameArgs(
			[]*manifest.Version{vanilla},
			vanilla.MinecraftArguments != "",
			gameValues(inst, vanilla, entry.ID),
		),
	}
	if err := m.finish(inst, inv, user); err != nil {
		return nil, err
	}
	return inst, nil
}

// fetchPack downloads the modpack archive through the cache, unpacks it into
// dir and reads its manifest.json.
func (m *Manager) fetchPack(ctx context.Context, projectID int, file domain.CatalogFile, dir string) (*manifest.Pack, error) {
	url := resolver.DownloadURL(m.cdnURL, file.ID, file.Name)
	archive, err := m.cache.Fetch(ctx, m.fetcher, "modpack-"+strconv.Itoa(projectID), strconv.Itoa(file.ID), url)
	if err != nil {
		return nil, err
	}

	m.logger.Info("unpacking modpack", "file", file.Name)
	if err := m.extractor.Extract(archive, dir); err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", file.Name, err)
	}
	return manifest.LoadPack(filepath.Join(dir, "manifest.json"))
}

// vanillaManifest makes sure versions/<id>/<id>.json exists in gameDir and
// loads it.
func (m *Manager) vanillaManifest(ctx context.Context, gameDir, id string) (*manifest.Version, error) {
	path := manifest.VersionPath(gameDir, id)
	if _, err := os.Stat(path); err != nil {
		entry, err := m.versions.Version(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := m.fetcher.Fetch(ctx, entry.URL, path); err != nil {
			return nil, fmt.Errorf("version descriptor: %w", err)
		}
	}
	return manifest.LoadVersion(path)
}

func (m *Manager) javaFor(ctx context.Context, v *manifest.Version) (string, error) {
	if m.runtimes == nil {
		return m.java, nil
	}
	return m.runtimes.Install(ctx, v.JavaMajor())
}

// download runs one batch. Every entry is attempted; any failure fails the
// setup.
func (m *Manager) download(ctx context.Context, set domain.DownloadSet) error {
	m.logger.Info("downloading", "files", set.Len())
	start := time.Now()

	report := m.fetcher.FetchAll(ctx, set)
	failed := report.Failed()
	for _, r := range failed {
		m.logger.Error("download failed", "path", r.Path, "url", r.URL, "err", r.Error)
	}
	m.logger.Info("downloads finished",
		"ok", report.Succeeded(),
		"failed", len(failed),
		"size", humanize.Bytes(uint64(report.Bytes())),
		"took", time.Since(start).Round(time.Millisecond),
	)

	if err := report.Err(); err != nil {
		return fmt.Errorf("%d of %d downloads failed: %w", len(failed), set.Len(), err)
	}
	return nil
}

func (m *Manager) finish(inst *domain.Instance, inv *domain.Invocation, user *domain.User) error {
	inv.InstanceName = inst.Name
	inv.InstanceUUID = inst.UUID
	inv.InstanceType = inst.Type
	*inv = invoker.WithUser(*inv, user)

	if err := invoker.Save(invokerPath(inst), inv); err != nil {
		return err
	}

	inst.InstalledAt = time.Now()
	return m.state.Add(inst)
}

// gameValues are the launch placeholders known at setup time. Session
// placeholders are filled at launch.
func gameValues(inst *domain.Instance, vanilla *manifest.Version, versionName string) map[string]string {
	index := vanilla.Assets
	if vanilla.AssetIndex != nil && vanilla.AssetIndex.ID != "" {
		index = vanilla.AssetIndex.ID
	}

	return map[string]string{
		"version_name":      versionName,
		"game_directory":    inst.Path,
		"assets_root":       filepath.Join(inst.Path, assetsDir),
		"game_assets":       filepath.Join(inst.Path, assetsDir),
		"assets_index_name": index,
		"user_type":         "mojang",
		"version_type":      "release",
		"user_properties":   "{}",
	}
}

// copyTree copies the regular files under src into dst, keeping their
// relative paths. A missing src is not an error.
func copyTree(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
