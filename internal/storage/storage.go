// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrExists is returned by Put when the key is already present. The write
// policy is create-if-absent; callers decide whether a duplicate key is a
// problem (for content-addressed catalog paths it is not).
var ErrExists = errors.New("storage: object already exists")

// ObjectStore is the blob boundary: validated catalog bytes go in under a
// deterministic key and the decoder reads them back by the same key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key builds the canonical object path chain/YYYY-MM-DD/storeID/filename.
// The date is the run date, not the catalog's own timestamp.
func Key(chain string, runDate time.Time, storeID, filename string) string {
	return path.Join(chain, runDate.Format("2006-01-02"), storeID, filename)
}

// FS stores objects under a root directory, one file per key.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage root: %w", err)
	}
	return &FS{root: root}, nil
}

func (s *FS) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrExists
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return err
	}
	return f.Close()
}

func (s *FS) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *FS) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("storage: bad key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
