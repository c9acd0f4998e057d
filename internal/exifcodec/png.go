package exifcodec

import (
	"bytes"
	"fmt"

	exif "github.com/dsoprea/go-exif/v3"
	pngstructure "github.com/dsoprea/go-png-image-structure/v2"
)

type pngMedia struct {
	cs *pngstructure.ChunkSlice
}

func parsePNG(data []byte) (*pngMedia, error) {
	pmp := pngstructure.NewPngMediaParser()
	intfc, err := pmp.ParseBytes(data)
	if err != nil {
		return nil, err
	}

	cs, ok := intfc.(*pngstructure.ChunkSlice)
	if !ok {
		return nil, fmt.Errorf("unexpected PNG media context %T", intfc)
	}
	return &pngMedia{cs: cs}, nil
}

func (p *pngMedia) exifBuilder() (*exif.IfdBuilder, error) {
	if _, err := p.cs.FindExif(); err != nil {
		return nil, err
	}
	return p.cs.ConstructExifBuilder()
}

func (p *pngMedia) setExif(ib *exif.IfdBuilder) error {
	return p.cs.SetExif(ib)
}

func (p *pngMedia) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.cs.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
