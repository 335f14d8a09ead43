package config

import (
	"os"
	"path/filepath"
	"time"

	"notetoolbar/events"
	"notetoolbar/models"

	"github.com/rohanthewiz/serr"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ============================================================================
// Process Configuration
//
// Values come from, in increasing precedence: defaults, an optional YAML
// config file, NOTETOOLBAR_* environment variables and command-line flags.
// ============================================================================

// EnvPrefix is prepended to every environment variable, e.g.
// NOTETOOLBAR_VAULT
const EnvPrefix = "NOTETOOLBAR"

// Config is what the process needs to run the toolbar engine
type Config struct {
	Vault    string        // Vault directory notes are read from (vault)
	DBPath   string        // DuckDB file holding settings (db)
	DataJSON string        // Host-style data.json; used instead of the db when set (data_json)
	Listen   string        // Web server address (listen)
	Debounce time.Duration // Quiet period for metadata changes (debounce)
	LogLevel string        // debug, info, warn or error (log_level)
	Platform string        // desktop, mobile or tablet (platform)
	PluginID string        // Host part of protocol links (plugin_id)
	Scheme   string        // Scheme of protocol links (scheme)
}

// setDefaults registers the fallback for every key
func setDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("vault", ".")
	v.SetDefault("db", filepath.Join(home, ".notetoolbar", "settings.ddb"))
	v.SetDefault("data_json", "")
	v.SetDefault("listen", "127.0.0.1:8090")
	v.SetDefault("debounce", events.DefaultDebounce)
	v.SetDefault("log_level", "info")
	v.SetDefault("platform", string(models.PlatformDesktop))
	v.SetDefault("plugin_id", "note-toolbar")
	v.SetDefault("scheme", "obsidian")
}

// Load reads configuration. configFile may be empty; flags may be nil.
// Flags are bound by name, so a flag "log_level" overrides the key of the
// same name.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, serr.Wrap(err, "failed to read config file "+configFile)
		}
	}
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, serr.Wrap(err, "failed to bind flags")
		}
	}

	cfg := &Config{
		Vault:    v.GetString("vault"),
		DBPath:   v.GetString("db"),
		DataJSON: v.GetString("data_json"),
		Listen:   v.GetString("listen"),
		Debounce: v.GetDuration("debounce"),
		LogLevel: v.GetString("log_level"),
		Platform: v.GetString("platform"),
		PluginID: v.GetString("plugin_id"),
		Scheme:   v.GetString("scheme"),
	}
	return cfg, nil
}

// Validate fails fast on settings that would only break later
func (c *Config) Validate() error {
	if c.Vault == "" {
		return serr.New("vault is required")
	}
	if info, err := os.Stat(c.Vault); err != nil || !info.IsDir() {
		return serr.New("vault is not a directory: " + c.Vault)
	}
	if c.DataJSON == "" && c.DBPath == "" {
		return serr.New("either db or data_json is required")
	}
	switch models.Platform(c.Platform) {
	case models.PlatformDesktop, models.PlatformMobile, models.PlatformTablet:
	default:
		return serr.New("platform must be desktop, mobile or tablet")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return serr.New("log_level must be debug, info, warn or error")
	}
	if c.Debounce < 10*time.Millisecond || c.Debounce > 10*time.Second {
		return serr.New("debounce must be between 10ms and 10s")
	}
	if c.PluginID == "" {
		return serr.New("plugin_id is required")
	}
	return nil
}

// Persister opens the settings store the config points at, with the local
// storage beside it and a function that closes both
func (c *Config) Persister() (models.Persister, models.LocalStorage, func() error, error) {
	if c.DataJSON != "" {
		return models.NewFileStore(c.DataJSON), models.NewMemoryLocalStorage(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return nil, nil, nil, serr.Wrap(err, "failed to create db directory")
	}
	db, err := models.OpenDuckStore(c.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	return db, db, db.Close, nil
}
