package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the authorization service
//	-n string   connection name shown on the approval page
//	-b string   session store backend: file or sqlite
//	-f string   session store path
//	-i int      approval poll interval in seconds
//	-p int      approval poll attempt budget
//	-k int      refresh skew in minutes
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n", "-b", "-f", "-i", "-p", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "a", cfg.Endpoint, "base URL of the authorization service")
	fs.StringVar(&cfg.ConnectionName, "n", cfg.ConnectionName, "connection name shown on the approval page")
	fs.StringVar(&cfg.StoreBackend, "b", cfg.StoreBackend, "session store backend (file|sqlite)")
	fs.StringVar(&cfg.StorePath, "f", cfg.StorePath, "session store path")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "approval poll interval (in seconds)")
	fs.IntVar(&cfg.PollAttempts, "p", cfg.PollAttempts, "approval poll attempts")
	refreshSkew := fs.Int("k", int(cfg.RefreshSkew.Minutes()), "refresh skew (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
	cfg.RefreshSkew = time.Duration(*refreshSkew) * time.Minute
}
