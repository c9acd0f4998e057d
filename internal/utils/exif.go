package utils

import (
	"fmt"
	"time"

	apperrors "exif-fixer/internal/errors"
)

// ExifTimeLayout is the fixed EXIF timestamp format "YYYY:MM:DD HH:MM:SS".
const ExifTimeLayout = "2006:01:02 15:04:05"

// ParseExifTime parses s in the fixed EXIF layout as a local wall-clock time.
// EXIF timestamps carry no zone, so they are read the same way the filesystem
// reports modification times.
func ParseExifTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ExifTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", apperrors.ErrInvalidTimestamp, s, err)
	}
	return t, nil
}

// FormatExifTime renders t in the fixed EXIF layout, dropping sub-second precision.
func FormatExifTime(t time.Time) string {
	return t.Format(ExifTimeLayout)
}

// ReadableTime renders t for people, e.g. "Wednesday, 15 January 2025, 14:30".
func ReadableTime(t time.Time) string {
	return t.Format("Monday, 2 January 2006, 15:04")
}
