// Package exifcodec is the boundary between image bytes and the EXIF tags the
// fixer cares about. It locates the EXIF block inside a JPEG or PNG file,
// exposes the timestamp tags as a typed Container, and re-embeds a modified
// Container without disturbing any other tag.
package exifcodec

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Tag ids, per the EXIF 2.31 tag tables.
const (
	tagDateTime          uint16 = 0x0132
	tagExifIFDPointer    uint16 = 0x8769
	tagDateTimeOriginal  uint16 = 0x9003
	tagDateTimeDigitized uint16 = 0x9004
	tagOffsetTime        uint16 = 0x9010
)

// fqExifIfdPath is the fully-qualified path of the Exif sub-IFD under IFD0.
const fqExifIfdPath = "IFD/Exif"

// ZerothIFD holds the IFD0 tags. A nil field means the tag is not in the file.
type ZerothIFD struct {
	DateTime *string
}

// ExifIFD holds the Exif sub-IFD tags. A nil field means the tag is not in the file.
type ExifIFD struct {
	DateTimeOriginal  *string
	DateTimeDigitized *string
	OffsetTime        *string
}

// Container is the typed view of an image's EXIF block. Values are the raw
// ASCII payloads with the terminating NULs removed; no parsing happens here.
type Container struct {
	Zeroth ZerothIFD
	Exif   ExifIFD

	// root is the builder for the existing IFD chain, or nil when the image
	// carried no EXIF block.
	root *exif.IfdBuilder
}

// Empty reports whether the image had no EXIF block at all.
func (c *Container) Empty() bool {
	return c.root == nil
}

// decodeContainer reads the timestamp tags out of an existing IFD chain.
func decodeContainer(root *exif.IfdBuilder) (*Container, error) {
	c := &Container{root: root}
	if root == nil {
		return c, nil
	}

	c.Zeroth.DateTime = asciiTag(root, tagDateTime)

	exifIb, err := childIb(root, tagExifIFDPointer)
	if err != nil {
		return nil, err
	}
	if exifIb != nil {
		c.Exif.DateTimeOriginal = asciiTag(exifIb, tagDateTimeOriginal)
		c.Exif.DateTimeDigitized = asciiTag(exifIb, tagDateTimeDigitized)
		c.Exif.OffsetTime = asciiTag(exifIb, tagOffsetTime)
	}

	return c, nil
}

// builder returns the IFD chain with every non-nil field applied, creating a
// fresh chain when the image had none. Tags not modelled by Container are
// carried over untouched.
func (c *Container) builder() (*exif.IfdBuilder, error) {
	root := c.root
	if root == nil {
		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, fmt.Errorf("failed to build IFD mapping: %w", err)
		}
		ti := exif.NewTagIndex()
		root = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	if c.Zeroth.DateTime != nil {
		if err := root.SetStandardWithName("DateTime", *c.Zeroth.DateTime); err != nil {
			return nil, fmt.Errorf("failed to set DateTime: %w", err)
		}
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"DateTimeOriginal", c.Exif.DateTimeOriginal},
		{"DateTimeDigitized", c.Exif.DateTimeDigitized},
		{"OffsetTime", c.Exif.OffsetTime},
	}

	var exifIb *exif.IfdBuilder
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if exifIb == nil {
			ib, err := exif.GetOrCreateIbFromRootIb(root, fqExifIfdPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open Exif IFD: %w", err)
			}
			exifIb = ib
		}
		if err := exifIb.SetStandardWithName(f.name, *f.value); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", f.name, err)
		}
	}

	c.root = root
	return root, nil
}

// asciiTag returns the first value of tagId in ib as a string, or nil when the
// tag is absent or is not a plain value.
func asciiTag(ib *exif.IfdBuilder, tagId uint16) *string {
	found, err := ib.FindN(tagId, 1)
	if err != nil || len(found) == 0 {
		return nil
	}

	value := ib.Tags()[found[0]].Value()
	if value == nil || value.IsIb() {
		return nil
	}

	s := string(bytes.TrimRight(value.Bytes(), "\x00"))
	return &s
}

// childIb returns the sub-IFD builder linked from ib by tagId, or nil.
func childIb(ib *exif.IfdBuilder, tagId uint16) (*exif.IfdBuilder, error) {
	found, err := ib.FindN(tagId, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to look up child IFD 0x%04x: %w", tagId, err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	value := ib.Tags()[found[0]].Value()
	if value == nil || !value.IsIb() {
		return nil, nil
	}
	return value.Ib(), nil
}
