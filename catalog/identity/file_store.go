package identity

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	tokenFileMode = 0o600
	tokenDirMode  = 0o700
	appDirName    = "bookshelf"
	tokenFileName = "token"
)

// FileStore keeps the token in a single file readable only by the owner.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) FileStore {
	return FileStore{path: path}
}

// DefaultTokenPath returns the token file location under the user's config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, appDirName, tokenFileName), nil
}

// Path returns the file the token is stored in.
func (f FileStore) Path() string {
	return f.path
}

// Load returns the stored token, or "" when there is none.
func (f FileStore) Load() (string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(raw)), nil
}

// Save writes token, creating the parent directory if needed.
func (f FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), tokenDirMode); err != nil {
		return err
	}

	if err := os.WriteFile(f.path, []byte(token), tokenFileMode); err != nil {
		return err
	}

	// WriteFile keeps the mode of an existing file.
	return os.Chmod(f.path, tokenFileMode)
}

// Clear removes the token file. A missing file is not an error.
func (f FileStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}
