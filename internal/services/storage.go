package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/djherbis/times"

	"exif-fixer/internal/models"
)

// StorageService reads and rewrites image files on the local filesystem.
type StorageService struct{}

func NewStorageService() *StorageService {
	return &StorageService{}
}

// Stat captures the access and modified times of a file.
func (s *StorageService) Stat(filePath string) (models.StatSnapshot, error) {
	ts, err := times.Stat(filePath)
	if err != nil {
		return models.StatSnapshot{}, fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	return models.StatSnapshot{
		AccessTime: ts.AccessTime(),
		ModTime:    ts.ModTime(),
	}, nil
}

// Retrieves a file from disk by its path.
// The handle is released before returning, whatever the outcome.
func (s *StorageService) FetchFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// WriteFile replaces the file's content atomically: temp file, fsync, rename.
// The original permission bits are kept.
func (s *StorageService) WriteFile(ctx context.Context, filePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", filePath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".fix-exif-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filePath, err)
	}

	committed = true
	return nil
}

// SetTimes sets the access and modified times of a file.
func (s *StorageService) SetTimes(filePath string, atime, mtime time.Time) error {
	if err := os.Chtimes(filePath, atime, mtime); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", filePath, err)
	}
	return nil
}
