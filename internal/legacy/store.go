package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// BlobStore is the opaque persistence boundary for the legacy cache. The
// interop layer owns the serialization of the legacy map into and out of the
// blob; the store just moves bytes.
type BlobStore interface {
	Load() ([]byte, error)
	Store(data []byte) error
}

// FileBlobStore persists the blob to a single file. A missing file reads as
// an empty blob.
type FileBlobStore struct {
	fs   afero.Fs
	path string
}

// NewFileBlobStore is the constructor for FileBlobStore.
func NewFileBlobStore(fs afero.Fs, path string) *FileBlobStore {
	return &FileBlobStore{fs: fs, path: path}
}

func (s *FileBlobStore) Load() ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read legacy cache file: %w", err)
	}
	return data, nil
}

func (s *FileBlobStore) Store(data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create legacy cache directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write legacy cache file: %w", err)
	}
	return nil
}

// MemoryBlobStore keeps the blob in memory, for tests and cache-less hosts.
type MemoryBlobStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryBlobStore() *MemoryBlobStore { return &MemoryBlobStore{} }

func (s *MemoryBlobStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, nil
}

func (s *MemoryBlobStore) Store(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

// entries is the serialized legacy map: composite key string -> bundle.
type entries map[string]Bundle

func loadEntries(store BlobStore) (entries, error) {
	data, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return entries{}, nil
	}
	var e entries
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse legacy cache blob: %w", err)
	}
	if e == nil {
		e = entries{}
	}
	return e, nil
}

func storeEntries(store BlobStore, e entries) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to serialize legacy cache: %w", err)
	}
	return store.Store(data)
}
