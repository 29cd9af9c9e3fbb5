// Package loader installs the Forge mod loader into an instance by running
// Forge's own installer as a subprocess.
package loader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/unascribed/FlexVer/go/flexver"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/manifest"
)

const (
	forgeMaven     = "https://files.minecraftforge.net/maven/net/minecraftforge/forge"
	HeadlessURL    = "https://github.com/xfl03/ForgeInstallerHeadless/releases/download/1.0.1/forge-installer-headless-1.0.1.jar"
	headlessMain   = "me.xfl03.HeadlessInstaller"
	headlessVer    = "1.0.1"
	text2speechURL = "https://libraries.minecraft.net/com/mojang/text2speech/1.10.3/text2speech-1.10.3.jar"
)

// Loader ids whose installers are broken; both are replaced with the last
// 1.12.2 build.
var forgeBlacklist = map[string]string{
	"forge-14.23.5.2838":        "forge-14.23.5.2855",
	"forge-1.12.2-14.23.5.2847": "forge-14.23.5.2855",
}

// Forge identifies a Forge build for one game version.
type Forge struct {
	MCVersion string
	Version   string
}

// ParseForge reads the pack's loader id, applying the blacklist remap. Packs
// built on anything but Forge are rejected.
func ParseForge(pack *manifest.Pack) (Forge, error) {
	id := pack.LoaderID()
	if remap, ok := forgeBlacklist[id]; ok {
		id = remap
	}

	name, version := manifest.SplitLoaderID(id)
	if name != "forge" || version == "" {
		return Forge{}, fmt.Errorf("not a forge modpack (loader %q)", id)
	}

	mc := pack.Minecraft.Version
	return Forge{MCVersion: mc, Version: strings.TrimPrefix(version, mc+"-")}, nil
}

// ID is the <mc>-<forge> string Forge uses in its maven paths.
func (f Forge) ID() string {
	return f.MCVersion + "-" + f.Version
}

// VersionID is the directory name the installer writes under versions/.
func (f Forge) VersionID() string {
	return manifest.ForgeVersionID(f.MCVersion, f.Version)
}

func (f Forge) InstallerURL() string {
	return fmt.Sprintf("%s/%s/forge-%s-installer.jar", forgeMaven, f.ID(), f.ID())
}

// Legacy reports whether the game version predates 1.13.2, where Forge still
// installs without the headless wrapper.
func (f Forge) Legacy() bool {
	return IsLegacy(f.MCVersion)
}

func IsLegacy(mcVersion string) bool {
	return flexver.Compare(mcVersion, "1.13.2") < 0
}

// LegacyLibraries are downloads the legacy launch path needs that no
// manifest lists.
func LegacyLibraries(libRoot string) domain.DownloadSet {
	set := domain.NewDownloadSet()
	set.Add(filepath.Join(libRoot, "com", "mojang", "text2speech", "1.10.3", "text2speech-1.10.3.jar"), text2speechURL)
	return set
}

// Runner starts a process in dir and waits for it.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

type Installer struct {
	fetcher domain.Fetcher
	cache   domain.Cache
	runner  Runner
	java    string
	logger  *log.Logger
}

func NewInstaller(fetcher domain.Fetcher, cache domain.Cache, runner Runner, java string, logger *log.Logger) *Installer {
	if runner == nil {
		runner = ExecRunner{}
	}
	if java == "" {
		java = "java"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Installer{fetcher: fetcher, cache: cache, runner: runner, java: java, logger: logger}
}

// WithJava returns a copy of the installer that runs java instead.
func (i *Installer) WithJava(java string) *Installer {
	cp := *i
	cp.java = java
	return &cp
}

// Install runs the Forge client installer with instanceDir as its target.
// On return the vanilla and Forge version manifests exist under
// instanceDir/versions.
func (i *Installer) Install(ctx context.Context, instanceDir string, f Forge) error {
	profiles := filepath.Join(instanceDir, "launcher_profiles.json")
	if err := os.WriteFile(profiles, []byte(`{"profiles": {} }`), 0644); err != nil {
		return fmt.Errorf("writing launcher profiles: %w", err)
	}

	installer, err := i.cache.Fetch(ctx, i.fetcher, "forge-installer", f.ID(), f.InstallerURL())
	if err != nil {
		return err
	}

	if f.Legacy() {
		i.logger.Info("running legacy forge installer, install the client into the instance directory", "dir", instanceDir)
		if err := i.runner.Run(ctx, instanceDir, i.java, "-jar", installer); err != nil {
			return fmt.Errorf("forge installer: %w", err)
		}
		return nil
	}

	headless, err := i.cache.Fetch(ctx, i.fetcher, "forge-installer-headless", headlessVer, HeadlessURL)
	if err != nil {
		return err
	}

	cp := installer + string(os.PathListSeparator) + headless
	i.logger.Info("running forge installer", "forge", f.ID())
	if err := i.runner.Run(ctx, instanceDir, i.java, "-cp", cp, headlessMain, "-installClient", "."); err != nil {
		return fmt.Errorf("forge installer: %w", err)
	}
	return nil
}
