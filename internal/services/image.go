package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"exif-fixer/internal/utils"
)

// ImageService renders upright, downscaled JPEG previews for the image viewer.
// Previews live in a private temp directory removed by Close and are
// rendered at most once per source file.
type ImageService struct {
	storage *StorageService
	maxSize int

	mu       sync.Mutex
	dir      string
	previews map[string]string // source path -> preview path
}

func NewImageService(storage *StorageService, maxSize int) *ImageService {
	return &ImageService{
		storage:  storage,
		maxSize:  maxSize,
		previews: make(map[string]string),
	}
}

// RenderPreview writes a preview of filePath and returns the preview's path.
func (s *ImageService) RenderPreview(ctx context.Context, filePath string) (string, error) {
	s.mu.Lock()
	cached, ok := s.previews[filePath]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	data, err := s.storage.FetchFile(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", filePath, err)
	}

	img = utils.ApplyOrientation(img, utils.Orientation(data))
	if s.maxSize > 0 {
		b := img.Bounds()
		if b.Dx() > s.maxSize || b.Dy() > s.maxSize {
			img = imaging.Fit(img, s.maxSize, s.maxSize, imaging.Lanczos)
		}
	}

	dir, err := s.previewDir()
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	out := filepath.Join(dir, base+".preview.jpg")
	if err := imaging.Save(img, out, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("failed to write preview: %w", err)
	}

	s.mu.Lock()
	s.previews[filePath] = out
	s.mu.Unlock()
	return out, nil
}

func (s *ImageService) previewDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir != "" {
		return s.dir, nil
	}
	dir, err := os.MkdirTemp("", "fix-exif-preview-*")
	if err != nil {
		return "", fmt.Errorf("failed to create preview dir: %w", err)
	}
	s.dir = dir
	return dir, nil
}

// Close removes all rendered previews.
func (s *ImageService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	clear(s.previews)
	return err
}
