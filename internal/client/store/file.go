package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authbridge/internal/client/models"
	"github.com/dmitrijs2005/authbridge/internal/filex"
)

// FileStore keeps the credential as one JSON file. The file is written with
// 0600 and its directory with 0700; the content is password-equivalent.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*models.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if !cred.Complete() {
		return nil, fmt.Errorf("session file is incomplete")
	}
	return &cred, nil
}

func (s *FileStore) Save(ctx context.Context, cred *models.Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return filex.WriteOwnerFile(s.path, data)
}

func (s *FileStore) Erase(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
