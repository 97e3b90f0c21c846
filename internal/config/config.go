package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

const (
	defaultAuthScheme = "Token"
	defaultTimeout    = 20 * time.Second
)

type Config struct {
	APIBaseURL   string        `koanf:"api_base_url"`
	AuthToken    string        `koanf:"auth_token"`
	AuthScheme   string        `koanf:"auth_scheme"`
	DatabasePath string        `koanf:"database_path"`
	OfflineMode  bool          `koanf:"offline_mode"`
	SyncInterval time.Duration `koanf:"sync_interval"`
	Timeout      time.Duration `koanf:"timeout"`
	LogFile      string        `koanf:"log_file"`
	Debug        bool          `koanf:"debug"`
}

// Default returns the configuration built from the static constants only.
func Default() Config {
	return Config{
		APIBaseURL:   APIBaseURL,
		AuthScheme:   defaultAuthScheme,
		DatabasePath: DatabaseName,
		OfflineMode:  OfflineModeEnabled,
		SyncInterval: SyncInterval,
		Timeout:      defaultTimeout,
		LogFile:      "./molle-pos.log",
	}
}

func New() (Config, error) {
	cfg := Default()

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg.Normalize(), nil
}

// Normalize fills blanks left by the environment or by flag overrides and
// makes the base URL a directory so relative endpoint paths resolve beneath it.
func (c Config) Normalize() Config {
	c.APIBaseURL = strings.TrimSpace(c.APIBaseURL)
	if c.APIBaseURL == "" {
		c.APIBaseURL = APIBaseURL
	}
	if !strings.HasSuffix(c.APIBaseURL, "/") {
		c.APIBaseURL += "/"
	}
	c.AuthScheme = strings.TrimSpace(c.AuthScheme)
	if c.AuthScheme == "" {
		c.AuthScheme = defaultAuthScheme
	}
	c.AuthToken = strings.TrimSpace(c.AuthToken)
	if c.SyncInterval <= 0 {
		c.SyncInterval = SyncInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
