// Package store persists the session credential between process runs.
//
// Two backends are provided: a single owner-only JSON file, and a SQLite
// database for hosts that already ship one. Both are best-effort from the
// caller's point of view: a failed load degrades to "no prior session" and
// a failed save leaves the in-memory credential usable.
package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authbridge/internal/client/models"
)

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store reads and writes the single credential record.
//
// Load returns (nil, nil) when no record exists. A present but unreadable
// record returns an error; callers decide whether that is fatal (it never
// is for the session manager, which logs and proceeds without a session).
type Store interface {
	Load(ctx context.Context) (*models.Credential, error)
	Save(ctx context.Context, cred *models.Credential) error
	Erase(ctx context.Context) error
}

// New constructs the backend selected by name. path is the credential file
// path for the file backend, or the database file path for sqlite.
// An empty name selects the file backend.
func New(ctx context.Context, backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(ctx, path)
	default:
		return nil, fmt.Errorf("unknown session store backend %q", backend)
	}
}
