package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/teamcutter/sml/internal/cache"
	"github.com/teamcutter/sml/internal/catalog"
	"github.com/teamcutter/sml/internal/config"
	"github.com/teamcutter/sml/internal/extractor"
	"github.com/teamcutter/sml/internal/fetcher"
	"github.com/teamcutter/sml/internal/loader"
	"github.com/teamcutter/sml/internal/manager"
	"github.com/teamcutter/sml/internal/reconciler"
	"github.com/teamcutter/sml/internal/resolver"
	"github.com/teamcutter/sml/internal/runtime"
	"github.com/teamcutter/sml/internal/state"
	"github.com/teamcutter/sml/internal/version"
)

func Execute(ctx context.Context) error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "sml",
		Short:         "A Minecraft modded launcher",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(
		newInstallCmd(),
		newVanillaCmd(),
		newVersionsCmd(),
		newListCmd(),
		newLaunchCmd(),
		newRemoveCmd(),
		newRenameCmd(),
		newConfigCmd(),
		newPrintConfigCmd(),
		newAuthCmd(),
		newOpenCmd(),
		newClearCmd(),
		newVersionCmd(),
	)
	return rootCmd.ExecuteContext(ctx)
}

// env is everything a command needs, built from config.toml.
type env struct {
	mgr      *manager.Manager
	cfg      *config.Config
	versions *catalog.Mojang
	state    *state.SQLiteState
}

func (e *env) Close() error {
	return e.state.Close()
}

func newEnv(ctx context.Context) (*env, error) {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	compare, err := reconciler.ComparatorByName(cfg.Comparator)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout.Duration}

	cf, err := catalog.NewCurseForge(cfg.CatalogURL, cfg.CacheDir,
		catalog.WithClient(client),
		catalog.WithLogger(logger),
		catalog.WithTTL(cfg.CatalogTTL.Duration),
	)
	if err != nil {
		return nil, err
	}

	st, err := state.NewSQLite(cfg.StateDB, cfg.ManifestFile, logger)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(cfg.HTTPTimeout.Duration, cfg.MaxParallel,
		fetcher.WithLogger(logger),
		fetcher.WithProgress(os.Stderr),
	)
	ex := extractor.New(logger)
	versions := catalog.NewMojang(cfg.VersionManifestURL, client)

	var runtimes *runtime.Runtimes
	if cfg.ManagedJava {
		runtimes = runtime.New(cfg.RuntimeURL, cfg.RuntimesDir, client, f, c, ex, logger)
	}

	mgr := manager.New(manager.Options{
		Fetcher:   f,
		Cache:     c,
		Extractor: ex,
		State:     st,
		Catalog:   cf,
		Versions:  versions,
		Resolver: resolver.New(cf,
			resolver.WithClient(client),
			resolver.WithAssetsURL(cfg.AssetsURL),
			resolver.WithCDNURL(cfg.CDNURL),
			resolver.WithParallel(cfg.MaxParallel),
			resolver.WithLogger(logger),
		),
		Installer:    loader.NewInstaller(f, c, loader.ExecRunner{}, cfg.JavaPath, logger),
		Runtimes:     runtimes,
		Comparator:   compare,
		InstancesDir: cfg.InstancesDir,
		Java:         cfg.JavaPath,
		CDNURL:       cfg.CDNURL,
		Logger:       logger,
	})

	return &env{mgr: mgr, cfg: cfg, versions: versions, state: st}, nil
}
