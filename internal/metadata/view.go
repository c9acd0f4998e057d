// Package metadata maps an EXIF container onto the four timestamp fields the
// fixer reconciles and writes corrections back.
package metadata

import (
	"time"

	"exif-fixer/internal/exifcodec"
	"exif-fixer/internal/utils"
)

// DefaultOffset is the UTC offset written when the caller does not choose one.
const DefaultOffset = "+09:00"

// View holds the decoded timestamp fields of one image. A nil field is absent.
type View struct {
	CaptureTime   *time.Time // Exif DateTimeOriginal
	DigitizedTime *time.Time // Exif DateTimeDigitized
	UTCOffset     *string    // Exif OffsetTime, verbatim
	ContainerTime *time.Time // IFD0 DateTime

	container *exifcodec.Container
}

// NewView decodes c. A field that exists but does not parse as an EXIF
// timestamp is treated as absent. A nil container yields an all-absent view.
func NewView(c *exifcodec.Container) *View {
	if c == nil {
		c = &exifcodec.Container{}
	}

	v := &View{container: c}
	v.CaptureTime = parseField(c.Exif.DateTimeOriginal)
	v.DigitizedTime = parseField(c.Exif.DateTimeDigitized)
	v.ContainerTime = parseField(c.Zeroth.DateTime)
	if c.Exif.OffsetTime != nil {
		offset := *c.Exif.OffsetTime
		v.UTCOffset = &offset
	}
	return v
}

func parseField(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := utils.ParseExifTime(*raw)
	if err != nil {
		return nil
	}
	return &t
}

// Correct sets the capture time and offset. The digitized and container-level
// timestamps follow t only when they were already present.
func (v *View) Correct(t time.Time, offset string) {
	t = t.Truncate(time.Second)

	v.CaptureTime = timePtr(t)
	if v.DigitizedTime != nil {
		v.DigitizedTime = timePtr(t)
	}
	v.UTCOffset = &offset
	if v.ContainerTime != nil {
		v.ContainerTime = timePtr(t)
	}
}

// Encode writes every present field back into the underlying container in
// the fixed EXIF layout and returns it. Absent fields are left as they were.
func (v *View) Encode() *exifcodec.Container {
	c := v.container
	if s := formatField(v.CaptureTime); s != nil {
		c.Exif.DateTimeOriginal = s
	}
	if s := formatField(v.DigitizedTime); s != nil {
		c.Exif.DateTimeDigitized = s
	}
	if v.UTCOffset != nil {
		offset := *v.UTCOffset
		c.Exif.OffsetTime = &offset
	}
	if s := formatField(v.ContainerTime); s != nil {
		c.Zeroth.DateTime = s
	}
	return c
}

func formatField(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := utils.FormatExifTime(*t)
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// Absent is how a missing field is displayed.
const Absent = "(absent)"

// Field is a display name and its current value.
type Field struct {
	Name  string
	Value string
}

// Fields lists all four fields in display order, absent ones included.
func (v *View) Fields() []Field {
	return []Field{
		{Name: "Exif DateTimeOriginal", Value: displayTime(v.CaptureTime)},
		{Name: "Exif DateTimeDigitized", Value: displayTime(v.DigitizedTime)},
		{Name: "Exif OffsetTime", Value: displayString(v.UTCOffset)},
		{Name: "0th DateTime", Value: displayTime(v.ContainerTime)},
	}
}

func displayTime(t *time.Time) string {
	if t == nil {
		return Absent
	}
	return utils.FormatExifTime(*t)
}

func displayString(s *string) string {
	if s == nil {
		return Absent
	}
	return *s
}
