package utils

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation reads the EXIF orientation tag, returning 1 (normal) when the
// image has no EXIF or no orientation.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	orientTag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orient, err := orientTag.Int(0)
	if err != nil {
		return 1
	}
	return orient
}

// ApplyOrientation transforms img so it displays upright for the given EXIF orientation.
// EXIF orientation values: 1=normal, 2=flip-h, 3=180, 4=flip-v, 5=transpose, 6=270, 7=transverse, 8=90
func ApplyOrientation(img image.Image, orient int) image.Image {
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
