package network

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vitwit/kycsbt/types"
	"gopkg.in/yaml.v3"
)

// FileStore keeps the selection in a YAML document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileDocument map[string]types.NetworkConfig

func (f *FileStore) Load(ctx context.Context) (types.NetworkConfig, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return types.NetworkConfig{}, false, nil
	}
	if err != nil {
		return types.NetworkConfig{}, false, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.NetworkConfig{}, false, fmt.Errorf("decode %s: %w", f.path, err)
	}
	cfg, ok := doc[types.StorageNamespace]
	return cfg, ok, nil
}

// Save writes to a temp file in the same directory and renames it over the
// old document, so readers never observe a partial value.
func (f *FileStore) Save(ctx context.Context, cfg types.NetworkConfig) error {
	data, err := yaml.Marshal(fileDocument{types.StorageNamespace: cfg})
	if err != nil {
		return fmt.Errorf("encode network config: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}
