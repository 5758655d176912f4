// Package config loads and validates bmc configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/bmc/internal/offline"
)

// DefaultExamURL is the external final-exam form.
const DefaultExamURL = "https://forms.gle/wfSe35kTS9ZSkVPv7"

// Config captures every configuration knob.
type Config struct {
	// CatalogURL locates the unit list. Empty means data/units.json under
	// AssetBaseURL.
	CatalogURL   string `mapstructure:"catalog_url" toml:"catalog_url"`
	AssetBaseURL string `mapstructure:"asset_base_url" toml:"asset_base_url"`
	ExamURL      string `mapstructure:"exam_url" toml:"exam_url"`
	// DBPath is the SQLite file. Empty uses BMC_DB or the XDG data dir.
	DBPath      string       `mapstructure:"db_path" toml:"db_path"`
	DownloadDir string       `mapstructure:"download_dir" toml:"download_dir"`
	Cache       CacheConfig  `mapstructure:"cache" toml:"cache"`
	Server      ServerConfig `mapstructure:"server" toml:"server"`
	Log         LogConfig    `mapstructure:"log" toml:"log"`
}

// CacheConfig controls the offline cache layer.
type CacheConfig struct {
	Enabled bool     `mapstructure:"enabled" toml:"enabled"`
	Name    string   `mapstructure:"name" toml:"name"`
	Assets  []string `mapstructure:"assets" toml:"assets"`
}

// ServerConfig controls the local mirror.
type ServerConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// LogConfig toggles zap development features and output.
type LogConfig struct {
	Development bool   `mapstructure:"development" toml:"development"`
	Level       string `mapstructure:"level" toml:"level"`
	File        string `mapstructure:"file" toml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AssetBaseURL: "http://127.0.0.1:8000/",
		ExamURL:      DefaultExamURL,
		DownloadDir:  defaultDownloadDir(),
		Cache: CacheConfig{
			Enabled: true,
			Name:    offline.DefaultCacheName,
			Assets:  offline.DefaultManifest().Assets,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
		Log:    LogConfig{Level: "info"},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/bmc/config.toml, falling back
// to ~/.config.
func DefaultConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if strings.TrimSpace(base) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "bmc", "config.toml"), nil
}

// Load builds a Config from defaults, an optional TOML file and BMC_*
// environment variables, in increasing precedence. An empty path reads the
// default config file when it exists.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BMC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		if p, err := DefaultConfigPath(); err == nil {
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("catalog_url", d.CatalogURL)
	v.SetDefault("asset_base_url", d.AssetBaseURL)
	v.SetDefault("exam_url", d.ExamURL)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("download_dir", d.DownloadDir)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.name", d.Cache.Name)
	v.SetDefault("cache.assets", d.Cache.Assets)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

func (c *Config) normalize() {
	c.AssetBaseURL = strings.TrimSpace(c.AssetBaseURL)
	if c.AssetBaseURL != "" && !strings.HasSuffix(c.AssetBaseURL, "/") {
		c.AssetBaseURL += "/"
	}
	c.CatalogURL = strings.TrimSpace(c.CatalogURL)
	if c.CatalogURL == "" && c.AssetBaseURL != "" {
		c.CatalogURL = c.AssetBaseURL + "data/units.json"
	}
	c.ExamURL = strings.TrimSpace(c.ExamURL)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
}

// Validate enforces required values.
func (c Config) Validate() error {
	if c.CatalogURL == "" {
		return errors.New("catalog_url must be set")
	}
	if err := requireHTTPURL("asset_base_url", c.AssetBaseURL); err != nil {
		return err
	}
	if err := requireHTTPURL("exam_url", c.ExamURL); err != nil {
		return err
	}
	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Name) == "" {
			return errors.New("cache.name must be set when the cache is enabled")
		}
		if len(c.Cache.Assets) == 0 {
			return errors.New("cache.assets must not be empty when the cache is enabled")
		}
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Manifest returns the offline cache manifest.
func (c Config) Manifest() offline.Manifest {
	assets := make([]string, len(c.Cache.Assets))
	copy(assets, c.Cache.Assets)
	return offline.Manifest{Name: c.Cache.Name, Assets: assets}
}

func requireHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fmt.Errorf("%s must be a valid URL", key)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL", key)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bmc-downloads"
	}
	return filepath.Join(home, "Downloads", "bmc")
}

const sampleHeader = `# bmc configuration
#
# Every key can also be set from the environment with the BMC_ prefix,
# for example BMC_ASSET_BASE_URL or BMC_CACHE_ENABLED.

`

// CreateSample writes the default configuration as TOML to path. It refuses
// to overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}

	body, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append([]byte(sampleHeader), body...), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
