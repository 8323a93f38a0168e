package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/flagx"
)

// UserFlag is a repeatable flag collecting "name:email" identity pairs.
type UserFlag []string

func (u *UserFlag) String() string {
	return strings.Join(*u, ",")
}

func (u *UserFlag) Set(value string) error {
	if !strings.Contains(value, ":") {
		return fmt.Errorf("user must be in 'name:email' format")
	}
	*u = append(*u, value)
	return nil
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string      HTTP bind address (e.g., ":8086")
//	-s string      JWT HMAC secret key
//	-t int         access token validity, minutes
//	-l int         approval request TTL, minutes
//	-w int         auto-approve delay, seconds (0 disables auto-approval)
//	-user string   identity to approve as "name:email"; repeatable
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and converted to time.Duration.
//   - Any -user flag replaces the default/JSON identity list entirely.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-t", "-l", "-w", "-user"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidity.Minutes()), "access token validity (in minutes)")
	approvalTTL := fs.Int("l", int(config.ApprovalTTL.Minutes()), "approval request TTL (in minutes)")
	autoApproveAfter := fs.Int("w", int(config.AutoApproveAfter.Seconds()), "auto-approve delay (in seconds, 0 = manual approval)")

	var users UserFlag
	fs.Var(&users, "user", "identity to approve, as name:email (repeatable)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidity = time.Duration(*accessTokenValidity) * time.Minute
	config.ApprovalTTL = time.Duration(*approvalTTL) * time.Minute
	config.AutoApproveAfter = time.Duration(*autoApproveAfter) * time.Second
	if len(users) > 0 {
		config.Users = users
	}
}
