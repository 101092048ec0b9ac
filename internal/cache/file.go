package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const lockTimeout = 10 * time.Second

// FileStore is a Repository persisted to a single JSON contract file. It also
// implements AccessHooks: BeforeAccess takes a cross-process file lock and
// reloads the file, AfterAccess flushes pending writes and releases the lock.
// That makes the file shareable between processes without any lock around the
// in-memory maps themselves.
type FileStore struct {
	fs     afero.Fs
	path   string
	mem    *MemoryStore
	lock   *flock.Flock
	logger *zap.Logger

	mu    sync.Mutex
	dirty bool
}

// NewFileStore is the constructor for FileStore. The cross-process lock file
// is only created when the backing filesystem is the real OS filesystem;
// in-memory filesystems used by tests have nothing to lock against.
func NewFileStore(fs afero.Fs, path string, logger *zap.Logger) *FileStore {
	s := &FileStore{
		fs:     fs,
		path:   path,
		mem:    NewMemoryStore(),
		logger: logger,
	}
	if _, ok := fs.(*afero.OsFs); ok {
		s.lock = flock.New(path + ".lock")
	}
	return s
}

// BeforeAccess acquires the cross-process lock and reloads the contract file.
// A missing file is a fresh cache, not an error.
func (s *FileStore) BeforeAccess() error {
	if s.lock != nil {
		ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		defer cancel()
		locked, err := s.lock.TryLockContext(ctx, 100*time.Millisecond)
		if err != nil {
			return fmt.Errorf("failed to acquire cache lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("failed to acquire cache lock: timeout after %v", lockTimeout)
		}
	}
	return s.reload()
}

// AfterAccess flushes pending writes and releases the cross-process lock.
func (s *FileStore) AfterAccess() error {
	flushErr := s.flush()
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release cache lock", zap.Error(err))
		}
	}
	return flushErr
}

func (s *FileStore) reload() error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.mem.Unmarshal(data); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}
	return nil
}

func (s *FileStore) flush() error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	s.mu.Unlock()

	data, err := s.mem.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func (s *FileStore) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *FileStore) SaveAccessToken(at AccessToken) error {
	if err := s.mem.SaveAccessToken(at); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) SaveRefreshToken(rt RefreshToken) error {
	if err := s.mem.SaveRefreshToken(rt); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) SaveIDToken(it IDToken) error {
	if err := s.mem.SaveIDToken(it); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) SaveAccount(a Account) error {
	if err := s.mem.SaveAccount(a); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) SaveAppMetadata(m AppMetadata) error {
	if err := s.mem.SaveAppMetadata(m); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) AccessTokens() ([]AccessToken, error)   { return s.mem.AccessTokens() }
func (s *FileStore) RefreshTokens() ([]RefreshToken, error) { return s.mem.RefreshTokens() }
func (s *FileStore) IDTokens() ([]IDToken, error)           { return s.mem.IDTokens() }
func (s *FileStore) Accounts() ([]Account, error)           { return s.mem.Accounts() }
func (s *FileStore) AppMetadata() ([]AppMetadata, error)    { return s.mem.AppMetadata() }

func (s *FileStore) DeleteAccessToken(key string) error {
	if err := s.mem.DeleteAccessToken(key); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) DeleteRefreshToken(key string) error {
	if err := s.mem.DeleteRefreshToken(key); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) DeleteIDToken(key string) error {
	if err := s.mem.DeleteIDToken(key); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) DeleteAccount(key string) error {
	if err := s.mem.DeleteAccount(key); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) Clear() error {
	if err := s.mem.Clear(); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

func (s *FileStore) Count() (Counts, error) { return s.mem.Count() }
