// Package testutil provides shared test helpers for building image fixtures.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"exif-fixer/internal/exifcodec"
)

// ImageBytes returns a small JPEG or PNG without any EXIF block.
func ImageBytes(t *testing.T, format exifcodec.Format) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 128, A: 255})
		}
	}

	enc := imaging.JPEG
	if format == exifcodec.FormatPNG {
		enc = imaging.PNG
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, enc, imaging.JPEGQuality(90)))
	return buf.Bytes()
}

// ImageWithExif returns an image whose EXIF block holds the non-nil fields of c.
func ImageWithExif(t *testing.T, format exifcodec.Format, c *exifcodec.Container) []byte {
	t.Helper()

	img, err := exifcodec.Parse(ImageBytes(t, format))
	require.NoError(t, err)
	require.NoError(t, img.SetContainer(c))
	data, err := img.Bytes()
	require.NoError(t, err)
	return data
}

// WriteFile writes data under dir and sets its access and modified times.
func WriteFile(t *testing.T, dir, name string, data []byte, atime, mtime time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, atime, mtime))
	return path
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}
