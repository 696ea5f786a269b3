// Package config loads server configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "NEXUSHUB"

// Config keys. Environment variables are NEXUSHUB_ plus the upper-cased
// key, e.g. NEXUSHUB_MASTER_SECRET.
const (
	keyAddr           = "addr"
	keyDatabasePath   = "database_path"
	keyMasterSecret   = "master_secret"
	keyDebug          = "debug"
	keyAllowedOrigins = "allowed_origins"
	keyLoginDelay     = "login_delay"
	keyLoadTimeout    = "load_timeout"
	keyCatalogPath    = "catalog_path"
	keyTokenTTL       = "token_ttl"
	keyLogFormat      = "log_format"
)

// ErrMissingSecret is returned when no master secret is configured.
var ErrMissingSecret = errors.New("NEXUSHUB_MASTER_SECRET is required")

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr           string
	DatabasePath   string
	MasterSecret   string
	Debug          bool
	AllowedOrigins []string
	// LoginDelay is how long the simulated login waits before answering.
	LoginDelay time.Duration
	// LoadTimeout is how long a tool may take to load in a viewer.
	LoadTimeout time.Duration
	// CatalogPath, if set, replaces the built-in catalog and is watched for
	// changes.
	CatalogPath string
	TokenTTL    time.Duration
	// LogFormat is "text" or "json".
	LogFormat string
}

// Overrides optionally overrides values from the environment or config
// file. A nil pointer means "use the environment/default value".
type Overrides struct {
	ConfigFile   string
	Addr         *string
	DatabasePath *string
	MasterSecret *string
	Debug        *bool
	CatalogPath  *string
}

// Load reads defaults, then the config file (if any), then NEXUSHUB_*
// environment variables, then overrides.
func Load(overrides Overrides) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if overrides.ConfigFile != "" {
		v.SetConfigFile(overrides.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Addr:           v.GetString(keyAddr),
		DatabasePath:   v.GetString(keyDatabasePath),
		MasterSecret:   v.GetString(keyMasterSecret),
		Debug:          v.GetBool(keyDebug),
		AllowedOrigins: splitList(v.GetStringSlice(keyAllowedOrigins)),
		LoginDelay:     v.GetDuration(keyLoginDelay),
		LoadTimeout:    v.GetDuration(keyLoadTimeout),
		CatalogPath:    v.GetString(keyCatalogPath),
		TokenTTL:       v.GetDuration(keyTokenTTL),
		LogFormat:      v.GetString(keyLogFormat),
	}
	overrides.apply(cfg)

	if cfg.MasterSecret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.LoadTimeout <= 0 {
		return nil, fmt.Errorf("load_timeout must be positive, got %s", cfg.LoadTimeout)
	}
	if cfg.LoginDelay < 0 {
		return nil, fmt.Errorf("login_delay must not be negative, got %s", cfg.LoginDelay)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAddr, ":3005")
	v.SetDefault(keyDatabasePath, "./nexushub.db")
	v.SetDefault(keyMasterSecret, "")
	v.SetDefault(keyDebug, false)
	v.SetDefault(keyAllowedOrigins, []string{"*"})
	v.SetDefault(keyLoginDelay, time.Second)
	v.SetDefault(keyLoadTimeout, 1500*time.Millisecond)
	v.SetDefault(keyCatalogPath, "")
	v.SetDefault(keyTokenTTL, 24*time.Hour)
	v.SetDefault(keyLogFormat, "text")
}

func (o Overrides) apply(cfg *Config) {
	if o.Addr != nil {
		cfg.Addr = *o.Addr
	}
	if o.DatabasePath != nil {
		cfg.DatabasePath = *o.DatabasePath
	}
	if o.MasterSecret != nil {
		cfg.MasterSecret = *o.MasterSecret
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
	}
	if o.CatalogPath != nil {
		cfg.CatalogPath = *o.CatalogPath
	}
}

// splitList accepts both list values and a single comma separated string,
// which is what an environment variable provides.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
