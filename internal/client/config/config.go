// Package config handles configuration for the AuthBridge client,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the AuthBridge client.
//
// Fields:
//   - Endpoint: base URL of the authorization service.
//   - ConnectionName: human-recognizable name of this client installation;
//     shown on the approval page and mixed into the request fingerprint.
//   - StoreBackend: session store backend, "file" or "sqlite".
//   - StorePath: session file (file backend) or database file (sqlite).
//     Empty means the per-user default under ~/.config/authbridge.
//   - PollInterval / PollAttempts: approval polling cadence and budget.
//   - RefreshSkew: how long before bearer expiry a refresh is triggered.
//   - HTTPTimeout: per-request timeout for calls to the service.
type Config struct {
	Endpoint       string
	ConnectionName string
	StoreBackend   string
	StorePath      string
	PollInterval   time.Duration
	PollAttempts   int
	RefreshSkew    time.Duration
	HTTPTimeout    time.Duration
}

// LoadDefaults populates c with sensible defaults. The connection name
// falls back to the local hostname so the approval page shows something a
// human can recognize.
func (c *Config) LoadDefaults() {
	c.Endpoint = "http://127.0.0.1:8086"
	c.ConnectionName = "authbridge-client"
	if host, err := os.Hostname(); err == nil && host != "" {
		c.ConnectionName = host
	}
	c.StoreBackend = "file"
	c.StorePath = ""
	c.PollInterval = 5 * time.Second
	c.PollAttempts = 60
	c.RefreshSkew = 5 * time.Minute
	c.HTTPTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
