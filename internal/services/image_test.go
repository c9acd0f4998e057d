package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exif-fixer/internal/exifcodec"
	"exif-fixer/internal/testutil"
)

func TestRenderPreview(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, testutil.ImageBytes(t, exifcodec.FormatPNG), 0o644))

	s := NewImageService(NewStorageService(), 4)
	preview, err := s.RenderPreview(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "photo.preview.jpg", filepath.Base(preview))

	img, err := imaging.Open(preview)
	require.NoError(t, err)
	b := img.Bounds()
	assert.LessOrEqual(t, b.Dx(), 4)
	assert.LessOrEqual(t, b.Dy(), 4)

	require.NoError(t, s.Close())
	_, err = os.Stat(preview)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderPreviewRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.jpg")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	s := NewImageService(NewStorageService(), 100)
	defer s.Close()

	_, err := s.RenderPreview(context.Background(), path)
	assert.Error(t, err)
}

func TestRenderPreviewReusesRenderedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, testutil.ImageBytes(t, exifcodec.FormatJPEG), 0o644))

	s := NewImageService(NewStorageService(), 100)
	defer s.Close()

	first, err := s.RenderPreview(context.Background(), path)
	require.NoError(t, err)

	// The source is gone; a second render must come from the memo.
	require.NoError(t, os.Remove(path))
	second, err := s.RenderPreview(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
