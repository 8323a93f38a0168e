package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/authbridge/internal/client/api"
	"github.com/dmitrijs2005/authbridge/internal/client/config"
	"github.com/dmitrijs2005/authbridge/internal/client/session"
	"github.com/dmitrijs2005/authbridge/internal/client/store"
	"github.com/dmitrijs2005/authbridge/internal/filex"
	"github.com/dmitrijs2005/authbridge/internal/logging"
)

// sessionAPI is the slice of session.Manager the commands need. Tests
// substitute a fake.
type sessionAPI interface {
	Login(ctx context.Context, username, email string) (*session.LoginInfo, error)
	CompleteLogin(ctx context.Context, requestID, oneTimeCode string) error
	UserID() (string, error)
	AuthHeaders(ctx context.Context) (map[string]string, error)
	Logout(ctx context.Context) error
}

type App struct {
	config  *config.Config
	session sessionAPI
	reader  *bufio.Reader
	out     io.Writer
}

// NewApp wires the store, the wire client, and the session manager from the
// given config, and restores any previously persisted session.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(sl)

	storePath, err := resolveStorePath(c)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, c.StoreBackend, storePath)
	if err != nil {
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.Endpoint, c.HTTPTimeout)

	manager := session.NewManager(apiClient, st, logger, session.Options{
		ConnectionName: c.ConnectionName,
		PollInterval:   c.PollInterval,
		PollAttempts:   c.PollAttempts,
		RefreshSkew:    c.RefreshSkew,
	})
	manager.Restore(ctx)

	return &App{
		config:  c,
		session: manager,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// resolveStorePath falls back to the per-user state directory when no path
// was configured.
func resolveStorePath(c *config.Config) (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	dir, err := filex.DefaultStateDir("authbridge")
	if err != nil {
		return "", err
	}
	name := "session.json"
	if c.StoreBackend == store.BackendSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, name), nil
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}
