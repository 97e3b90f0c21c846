package cli

import (
	"time"

	"molle_pos/internal/config"
)

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Offline bool
	JSON    bool
	Command string
	Args    []string
}

// apply layers the command-line overrides on top of the loaded config.
func (o Options) apply(cfg config.Config) config.Config {
	cfg.APIBaseURL = o.BaseURL
	cfg.AuthToken = o.Token
	cfg.Timeout = o.Timeout
	cfg.OfflineMode = o.Offline
	return cfg.Normalize()
}
