package predictor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	ErrBundleNotFound    = errors.New("model bundle not found")
	ErrStoreUnconfigured = errors.New("model store location is not configured")
)

// Store persists one bundle per user. Save must replace the previous bundle
// atomically: a concurrent Load sees either the old or the new bundle.
//
// Stamp is a cheap token that changes whenever the stored bundle does, and is
// empty when the user has none.
type Store interface {
	Save(ctx context.Context, userID uint, b *Bundle) error
	Load(ctx context.Context, userID uint) (*Bundle, error)
	Stamp(ctx context.Context, userID uint) (string, error)
}

// FileStore keeps each user's bundle in its own file under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the file that holds the bundle for userID.
func (s *FileStore) Path(userID uint) (string, error) {
	if s == nil || s.Dir == "" {
		return "", ErrStoreUnconfigured
	}
	return filepath.Join(s.Dir, "time_model_"+strconv.FormatUint(uint64(userID), 10)+".json"), nil
}

// Save writes to a temp file in the same directory and renames it over the target.
func (s *FileStore) Save(ctx context.Context, userID uint, b *Bundle) error {
	path, err := s.Path(userID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeBundle(b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create model dir %q: %w", s.Dir, err)
	}

	tmp, err := os.CreateTemp(s.Dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp bundle: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace bundle: %w", err)
	}
	committed = true
	return syncDir(s.Dir)
}

// syncDir flushes the directory entry so a rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("open model dir: %w", err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync model dir: %w", err)
	}
	return nil
}

// Stamp is the bundle file's modification time and size. Every Save renames a
// fresh file into place, so the stamp moves with each commit.
func (s *FileStore) Stamp(ctx context.Context, userID uint) (string, error) {
	path, err := s.Path(userID)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat bundle: %w", err)
	}
	return info.ModTime().UTC().Format(time.RFC3339Nano) + "/" + strconv.FormatInt(info.Size(), 10), nil
}

func (s *FileStore) Load(ctx context.Context, userID uint) (*Bundle, error) {
	path, err := s.Path(userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	return DecodeBundle(data)
}
