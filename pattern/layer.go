package pattern

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// layer is a premultiplied bitmap placed at (x, y) in content-box space.
type layer struct {
	img  *image.RGBA
	x, y float64
}

// fade scales the layer's opacity by a, the equivalent of canvas globalAlpha.
func (l *layer) fade(a float64) {
	a = math.Min(math.Max(a, 0), 1)
	if a == 1 {
		return
	}
	for i, v := range l.img.Pix {
		l.img.Pix[i] = uint8(float64(v)*a + 0.5)
	}
}

// drawTo composites the layer onto dst through the content transform m.
func (l *layer) drawTo(dst *image.RGBA, m gg.Matrix) {
	t := m.Multiply(gg.Translate(l.x, l.y))
	s2d := f64.Aff3{t.A, t.B, t.C, t.D, t.E, t.F}
	draw.BiLinear.Transform(dst, s2d, l.img, l.img.Bounds(), draw.Over, nil)
}

// contentTransform maps content-box coordinates to tile coordinates: move
// to the content origin, then rotate about the centre of the content box.
func contentTransform(o Options) gg.Matrix {
	ox, oy := o.origin()
	cx, cy := o.Width/2, o.Height/2
	rad := o.Rotate * math.Pi / 180
	return gg.Translate(ox, oy).
		Multiply(gg.Translate(cx, cy)).
		Multiply(gg.Rotate(rad)).
		Multiply(gg.Translate(-cx, -cy))
}

// imageLayer scales img to exactly w×h.
func imageLayer(img image.Image, w, h float64) *layer {
	dw, dh := int(math.Round(w)), int(math.Round(h))
	dst := image.NewRGBA(image.Rect(0, 0, max(dw, 1), max(dh, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return &layer{img: dst}
}

// glyphPad keeps antialiased glyph edges inside the layer bitmap.
const glyphPad = 2

// textLayer renders s with canvas textAlign/textBaseline semantics so that
// the anchor (x, y) lands where a canvas fillText(s, x, y) would put it.
func textLayer(s string, face text.Face, col color.Color, align, baseline string, x, y float64) *layer {
	w := face.Advance(s)
	m := face.Metrics()

	img := image.NewRGBA(image.Rect(0, 0,
		int(math.Ceil(w))+2*glyphPad,
		int(math.Ceil(m.Ascent+m.Descent))+2*glyphPad))
	text.Draw(img, s, face, glyphPad, glyphPad+m.Ascent, col)

	switch align {
	case "center":
		x -= w / 2
	case "right", "end":
		x -= w
	}
	switch baseline {
	case "top", "hanging":
		y += m.Ascent
	case "middle":
		y += (m.Ascent - m.Descent) / 2
	case "bottom", "ideographic":
		y -= m.Descent
	}
	return &layer{img: img, x: x - glyphPad, y: y - m.Ascent - glyphPad}
}
