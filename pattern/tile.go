package pattern

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

// Tile is one rendered pattern unit. Tiles are immutable.
type Tile struct {
	// URL is the tile as a data:image/png;base64 URL.
	URL string
	// Width and Height are the exact tile size (content box plus gaps).
	Width, Height float64
	// Image holds the decoded pixels. Callers must not modify it.
	Image *image.RGBA
}

func newTile(img *image.RGBA, w, h float64) (*Tile, error) {
	var buf bytes.Buffer
	buf.WriteString("data:image/png;base64,")
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(enc, img); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return &Tile{URL: buf.String(), Width: w, Height: h, Image: img}, nil
}

// PNG returns the tile encoded as PNG bytes.
func (t *Tile) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
