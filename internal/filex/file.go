// Package filex contains small filesystem helpers for credential-grade
// state: owner-only directories and files.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureOwnerDir creates dir together with missing parents. The leaf
// directory is created with 0700 so only the owner can list or read it.
func EnsureOwnerDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// WriteOwnerFile writes data to path with 0600 permissions, creating the
// parent directory first. Content written through this helper is treated as
// password-equivalent, so group/world access is never granted.
func WriteOwnerFile(path string, data []byte) error {
	if err := EnsureOwnerDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DefaultStateDir returns the per-user state directory for the given
// application name, following the ~/.config convention.
func DefaultStateDir(appName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}
