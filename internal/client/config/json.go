package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
	"github.com/dmitrijs2005/authbridge/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	Endpoint       string         `json:"endpoint"`
	ConnectionName string         `json:"connection_name"`
	StoreBackend   string         `json:"store_backend"`
	StorePath      string         `json:"store_path"`
	PollInterval   timex.Duration `json:"poll_interval"`
	PollAttempts   int            `json:"poll_attempts"`
	RefreshSkew    timex.Duration `json:"refresh_skew"`
	HTTPTimeout    timex.Duration `json:"http_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies set fields into the provided Config; omitted fields keep
//     their current (default) values.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.ConnectionName != "" {
		cfg.ConnectionName = jc.ConnectionName
	}
	if jc.StoreBackend != "" {
		cfg.StoreBackend = jc.StoreBackend
	}
	if jc.StorePath != "" {
		cfg.StorePath = jc.StorePath
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.PollAttempts != 0 {
		cfg.PollAttempts = jc.PollAttempts
	}
	if jc.RefreshSkew.Duration != 0 {
		cfg.RefreshSkew = time.Duration(jc.RefreshSkew.Duration)
	}
	if jc.HTTPTimeout.Duration != 0 {
		cfg.HTTPTimeout = time.Duration(jc.HTTPTimeout.Duration)
	}
}
