package store

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/client/models"
	"github.com/stretchr/testify/require"
)

func testCredential() *models.Credential {
	return &models.Credential{
		UserID:       "user-9",
		BearerToken:  "tok",
		BearerExpiry: time.Now().Add(time.Hour).UTC(),
		SyncID:       "sync-abc",
		RequestID:    "req-1",
		OneTimeCode:  "happy-star-1234",
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	s := NewFileStore(path)
	ctx := context.Background()

	want := testCredential()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want.UserID, got.UserID)
	require.Equal(t, want.BearerToken, got.BearerToken)
	require.Equal(t, want.SyncID, got.SyncID)
	require.Equal(t, want.RequestID, got.RequestID)
	require.Equal(t, want.OneTimeCode, got.OneTimeCode)
	require.True(t, want.BearerExpiry.Equal(got.BearerExpiry))
}

func TestFileStore_OwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}

	dir := filepath.Join(t.TempDir(), "state")
	path := filepath.Join(dir, "session.json")
	s := NewFileStore(path)

	require.NoError(t, s.Save(context.Background(), testCredential()))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	di, err := os.Stat(dir)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), di.Mode().Perm())
}

func TestFileStore_LoadMissingIsNoSession(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ not json`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
}

func TestFileStore_LoadIncompleteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user_id":"user-9"}`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err, "partial records must not load as a session")
}

func TestFileStore_EraseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCredential()))
	require.NoError(t, s.Erase(ctx))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Erase(ctx), "erasing an already-empty store must succeed")
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fileStore, err := New(ctx, BackendFile, filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, fileStore)

	defaultStore, err := New(ctx, "", filepath.Join(dir, "d.json"))
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, defaultStore)

	sqliteStore, err := New(ctx, BackendSQLite, filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, sqliteStore)
	require.NoError(t, sqliteStore.(*SQLiteStore).Close())

	_, err = New(ctx, "etcd", "whatever")
	require.Error(t, err)
}
