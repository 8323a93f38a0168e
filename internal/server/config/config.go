// Package config handles configuration for the test authorization server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the test authorization server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP endpoint.
//   - SecretKey: HMAC secret for signing bearer JWTs (HS256).
//   - AccessTokenValidity: lifetime of issued bearer tokens.
//   - ApprovalTTL: how long a registered handshake stays approvable.
//   - AutoApproveAfter: when positive, pending handshakes are approved
//     without an explicit approve call after this delay (simulates the
//     human for unattended test runs). Zero means manual approval only.
//   - Users: identities the server will approve, as "name:email" pairs.
type Config struct {
	EndpointAddr        string
	SecretKey           string
	AccessTokenValidity time.Duration
	ApprovalTTL         time.Duration
	AutoApproveAfter    time.Duration
	Users               []string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8086"
	c.SecretKey = "secretKey"
	c.AccessTokenValidity = 15 * time.Minute
	c.ApprovalTTL = 5 * time.Minute
	c.AutoApproveAfter = 0
	c.Users = []string{"ada:ada@example.com"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
