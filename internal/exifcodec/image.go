package exifcodec

import (
	"bytes"
	"errors"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	dlog "github.com/dsoprea/go-logging"

	apperrors "exif-fixer/internal/errors"
)

// Format identifies the image container.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

var (
	jpegMagic = []byte{0xff, 0xd8}
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
)

// media is implemented by each supported image container.
type media interface {
	// exifBuilder returns the existing IFD chain, or exif.ErrNoExif.
	exifBuilder() (*exif.IfdBuilder, error)
	setExif(ib *exif.IfdBuilder) error
	encode() ([]byte, error)
}

// Image is a parsed image file whose EXIF block can be rewritten.
type Image struct {
	format Format
	m      media
}

// Parse sniffs data and parses it as JPEG or PNG.
func Parse(data []byte) (*Image, error) {
	var (
		m      media
		format Format
		err    error
	)

	switch {
	case bytes.HasPrefix(data, jpegMagic):
		format = FormatJPEG
		m, err = parseJPEG(data)
	case bytes.HasPrefix(data, pngMagic):
		format = FormatPNG
		m, err = parsePNG(data)
	default:
		return nil, apperrors.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}

	return &Image{format: format, m: m}, nil
}

// Format returns the detected container format.
func (img *Image) Format() Format {
	return img.format
}

// Container decodes the EXIF block. An image without one yields an empty
// Container rather than an error.
func (img *Image) Container() (*Container, error) {
	root, err := img.m.exifBuilder()
	if err != nil {
		if !isNoExif(err) {
			return nil, fmt.Errorf("failed to read EXIF: %w", err)
		}
		root = nil
	}
	return decodeContainer(root)
}

// SetContainer embeds c into the image, replacing any existing EXIF block.
func (img *Image) SetContainer(c *Container) error {
	root, err := c.builder()
	if err != nil {
		return err
	}
	if err := img.m.setExif(root); err != nil {
		return fmt.Errorf("failed to embed EXIF: %w", err)
	}
	return nil
}

// Bytes serializes the image with its current EXIF block.
func (img *Image) Bytes() ([]byte, error) {
	data, err := img.m.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", img.format, err)
	}
	return data, nil
}

// isNoExif matches exif.ErrNoExif whether it was returned directly or
// wrapped by the dsoprea panic/recover error handling.
func isNoExif(err error) bool {
	return errors.Is(err, exif.ErrNoExif) || dlog.Is(err, exif.ErrNoExif)
}
