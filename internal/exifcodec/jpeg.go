package exifcodec

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

type jpegMedia struct {
	sl *jpegstructure.SegmentList
}

func parseJPEG(data []byte) (*jpegMedia, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	sl, ok := intfc.(*jpegstructure.SegmentList)
	if !ok {
		return nil, fmt.Errorf("unexpected JPEG media context %T", intfc)
	}
	return &jpegMedia{sl: sl}, nil
}

func (j *jpegMedia) exifBuilder() (*exif.IfdBuilder, error) {
	if _, _, err := j.sl.FindExif(); err != nil {
		return nil, err
	}
	return j.sl.ConstructExifBuilder()
}

func (j *jpegMedia) setExif(ib *exif.IfdBuilder) error {
	return j.sl.SetExif(ib)
}

func (j *jpegMedia) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := j.sl.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
