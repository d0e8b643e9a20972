package blind

import (
	"image"
	"image/color"
	"testing"
)

func TestReveal(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		want color.NRGBA
	}{
		{"odd red", color.NRGBA{R: 201, G: 40, B: 99, A: 255}, color.NRGBA{R: 255, A: 255}},
		{"even red", color.NRGBA{R: 200, G: 41, B: 98, A: 255}, color.NRGBA{A: 255}},
		{"one", color.NRGBA{R: 1, A: 10}, color.NRGBA{R: 255, A: 10}},
		{"zero alpha kept", color.NRGBA{R: 3, G: 7, B: 9, A: 0}, color.NRGBA{R: 255}},
		{"white", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, color.NRGBA{R: 255, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
			img.SetNRGBA(0, 0, tt.in)
			Reveal(img)
			if got := img.NRGBAAt(0, 0); got != tt.want {
				t.Errorf("Reveal(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRevealSubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 7, G: 7, B: 7, A: 255})
		}
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA)
	Reveal(sub)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := img.NRGBAAt(x, y)
			inside := x >= 1 && x < 3 && y >= 1 && y < 3
			want := color.NRGBA{R: 7, G: 7, B: 7, A: 255}
			if inside {
				want = color.NRGBA{R: 255, A: 255}
			}
			if got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRevealImageLeavesSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 3, 5, 6))
	src.SetRGBA(2, 3, color.RGBA{R: 5, G: 5, B: 5, A: 255})

	out := RevealImage(src)
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v, want %v", out.Bounds(), src.Bounds())
	}
	if got := out.NRGBAAt(2, 3); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("revealed pixel = %v", got)
	}
	if got := src.RGBAAt(2, 3); got.R != 5 || got.G != 5 {
		t.Errorf("source modified: %v", got)
	}
}
