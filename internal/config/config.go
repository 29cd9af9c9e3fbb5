package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	SMLDir             string   `toml:"sml_dir"`
	InstancesDir       string   `toml:"instances_dir"`
	CacheDir           string   `toml:"cache_dir"`
	RuntimesDir        string   `toml:"runtimes_dir"`
	StateDB            string   `toml:"state_db"`
	ManifestFile       string   `toml:"manifest_file"`
	UserFile           string   `toml:"user_file"`
	MaxParallel        int      `toml:"max_parallel"`
	HTTPTimeout        Duration `toml:"http_timeout"`
	CatalogTTL         Duration `toml:"catalog_ttl"`
	CatalogURL         string   `toml:"catalog_url"`
	CDNURL             string   `toml:"cdn_url"`
	AssetsURL          string   `toml:"assets_url"`
	VersionManifestURL string   `toml:"version_manifest_url"`
	AuthURL            string   `toml:"auth_url"`
	RuntimeURL         string   `toml:"runtime_url"`
	JavaPath           string   `toml:"java_path"`
	ManagedJava        bool     `toml:"managed_java"`
	Comparator         string   `toml:"comparator"`
}

// Duration wraps time.Duration so it reads and writes as "300s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// BaseDir is $SML_HOME, or ~/.sml.
func BaseDir() string {
	if dir := os.Getenv("SML_HOME"); dir != "" {
		return expandHome(dir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sml")
}

func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

func DefaultConfig() *Config {
	base := BaseDir()

	return &Config{
		SMLDir:             base,
		InstancesDir:       filepath.Join(base, "instances"),
		CacheDir:           filepath.Join(base, "cache"),
		RuntimesDir:        filepath.Join(base, "runtimes"),
		StateDB:            filepath.Join(base, "sml.db"),
		ManifestFile:       filepath.Join(base, "instances.json"),
		UserFile:           filepath.Join(base, "userinfo.json"),
		MaxParallel:        8,
		HTTPTimeout:        Duration{300 * time.Second},
		CatalogTTL:         Duration{10 * time.Minute},
		CatalogURL:         "https://api.cfwidget.com/",
		CDNURL:             "https://media.forgecdn.net",
		AssetsURL:          "http://resources.download.minecraft.net",
		VersionManifestURL: "https://launchermeta.mojang.com/mc/game/version_manifest.json",
		AuthURL:            "https://authserver.mojang.com/authenticate",
		RuntimeURL:         "https://api.adoptium.net",
		JavaPath:           "java",
		Comparator:         "numeric",
	}
}

// Load reads config.toml, writing the defaults on first use, then applies
// .env and SML_* environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.expandPaths()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SML_MAX_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid SML_MAX_PARALLEL %q", v)
		}
		c.MaxParallel = n
	}
	if v := os.Getenv("SML_JAVA"); v != "" {
		c.JavaPath = v
	}
	if v := os.Getenv("SML_COMPARATOR"); v != "" {
		c.Comparator = v
	}
	return nil
}

func (c *Config) expandPaths() {
	for _, p := range []*string{&c.SMLDir, &c.InstancesDir, &c.CacheDir, &c.RuntimesDir, &c.StateDB, &c.ManifestFile, &c.UserFile} {
		*p = expandHome(*p)
	}
}

func Save(cfg *Config) error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
