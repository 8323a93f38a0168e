package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/config"
)

// App ties the registry and handlers to an HTTP listener with graceful
// shutdown on SIGINT/SIGTERM/SIGQUIT.
type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *Registry
	handler  *Handler
}

// ParseIdentities converts "name:email" pairs into identities.
func ParseIdentities(users []string) ([]Identity, error) {
	identities := make([]Identity, 0, len(users))
	for _, u := range users {
		name, email, ok := strings.Cut(u, ":")
		if !ok || name == "" || email == "" {
			return nil, fmt.Errorf("invalid identity %q, expected name:email", u)
		}
		identities = append(identities, Identity{Username: name, Email: email})
	}
	return identities, nil
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	identities, err := ParseIdentities(c.Users)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("at least one -user identity is required")
	}

	registry := NewRegistry(identities, c.ApprovalTTL, c.AutoApproveAfter)
	handler := NewHandler(registry, logger, []byte(c.SecretKey), c.AccessTokenValidity)

	return &App{config: c, logger: logger, registry: registry, handler: handler}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.handler.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}()

	app.logger.Info(ctx, "listening", "addr", app.config.EndpointAddr)
	for _, id := range app.registry.Identities() {
		app.logger.Info(ctx, "identity configured", "username", id.Username, "user_id", id.UserID)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

}
