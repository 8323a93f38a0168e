package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/client/models"
	"github.com/dmitrijs2005/authbridge/internal/client/store/migrations"
	"github.com/dmitrijs2005/authbridge/internal/dbx"
	"github.com/dmitrijs2005/authbridge/internal/filex"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// session_meta keys. One credential maps to one row per field so the save
// transaction can upsert them individually.
const (
	metaKeyUserID       = "user_id"
	metaKeyBearerToken  = "bearer_token"
	metaKeyBearerExpiry = "bearer_expiry"
	metaKeySyncID       = "sync_id"
	metaKeyRequestID    = "request_id"
	metaKeyOneTimeCode  = "one_time_code"
)

// SQLiteStore keeps the credential in a local SQLite database, for hosts
// that already carry one. The database directory is restricted to the owner.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// embedded schema migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := filex.EnsureOwnerDir(dir); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session_meta`)
	if err != nil {
		return nil, fmt.Errorf("read session meta: %w", err)
	}
	defer rows.Close()

	values := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan session meta: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session meta: %w", err)
	}

	if len(values) == 0 {
		return nil, nil
	}

	cred := &models.Credential{
		UserID:      string(values[metaKeyUserID]),
		BearerToken: string(values[metaKeyBearerToken]),
		SyncID:      string(values[metaKeySyncID]),
		RequestID:   string(values[metaKeyRequestID]),
		OneTimeCode: string(values[metaKeyOneTimeCode]),
	}
	if raw, ok := values[metaKeyBearerExpiry]; ok {
		expiry, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return nil, fmt.Errorf("parse bearer expiry: %w", err)
		}
		cred.BearerExpiry = expiry
	}

	if !cred.Complete() {
		return nil, fmt.Errorf("session record is incomplete")
	}
	return cred, nil
}

// Save writes all fields in one transaction so a credential is either fully
// stored or not stored at all.
func (s *SQLiteStore) Save(ctx context.Context, cred *models.Credential) error {
	fields := map[string][]byte{
		metaKeyUserID:       []byte(cred.UserID),
		metaKeyBearerToken:  []byte(cred.BearerToken),
		metaKeyBearerExpiry: []byte(cred.BearerExpiry.Format(time.RFC3339Nano)),
		metaKeySyncID:       []byte(cred.SyncID),
		metaKeyRequestID:    []byte(cred.RequestID),
		metaKeyOneTimeCode:  []byte(cred.OneTimeCode),
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for key, value := range fields {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO session_meta (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value)
			if err != nil {
				return fmt.Errorf("set session_meta[%s]: %w", key, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Erase(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_meta`); err != nil {
		return fmt.Errorf("clear session meta: %w", err)
	}
	return nil
}
