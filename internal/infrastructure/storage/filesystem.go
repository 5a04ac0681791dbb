package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nutriweek/backend/internal/domain"
)

// validateKey rejects keys that could escape the store's namespace.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// FilesystemStore keeps each object as a file under root with a .meta.json
// sidecar. Writes go through a temp file and rename so readers never see a
// partial object.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) dataPath(key string) string {
	return filepath.Join(s.root, key)
}

func (s *FilesystemStore) metaPath(key string) string {
	return filepath.Join(s.root, key+".meta.json")
}

func (s *FilesystemStore) Put(_ context.Context, key string, data []byte, meta domain.ObjectMeta) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := writeAtomic(s.dataPath(key), data); err != nil {
		return fmt.Errorf("write object: %w", err)
	}

	if meta == nil {
		meta = domain.ObjectMeta{}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := writeAtomic(s.metaPath(key), encoded); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func (s *FilesystemStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.dataPath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (s *FilesystemStore) Head(_ context.Context, key string) (*domain.ObjectInfo, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	stat, err := os.Stat(s.dataPath(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat object: %w", err)
	}

	meta := domain.ObjectMeta{}
	if encoded, err := os.ReadFile(s.metaPath(key)); err == nil {
		if err := json.Unmarshal(encoded, &meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	return &domain.ObjectInfo{Size: stat.Size(), Meta: meta}, nil
}

func (s *FilesystemStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.dataPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	if err := os.Remove(s.metaPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete meta: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
