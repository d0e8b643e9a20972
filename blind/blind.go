// Package blind reveals the low-opacity text that watermark tiles carry
// underneath their visible layer.
//
// A blind layer is black text drawn at an opacity of a fraction of a percent.
// Composited over a page it shifts each covered pixel's red channel by one or
// two levels. Reveal exaggerates that shift by mapping every pixel with an odd
// red value to full red and every other pixel to black, which turns the faint
// text into a readable red-on-black (or black-on-red) pattern.
package blind

import (
	"image"
	"image/draw"
)

// Reveal applies the parity transform to img in place. Pixels whose red
// channel is odd become pure red and all others become black. Alpha is left
// untouched.
func Reveal(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			if row[i]%2 == 1 {
				row[i] = 255
			} else {
				row[i] = 0
			}
			row[i+1] = 0
			row[i+2] = 0
		}
	}
}

// RevealImage copies src into a new NRGBA image and reveals it. The source
// is never modified.
func RevealImage(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	Reveal(dst)
	return dst
}
