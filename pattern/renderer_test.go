package pattern

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func baseOptions() Options {
	return Options{
		Text:          Lines{"abc123"},
		Width:         120,
		Height:        60,
		GapX:          100,
		GapY:          100,
		Opacity:       0.15,
		Rotate:        -24,
		FontSize:      16,
		FontWeight:    "400",
		FontStyle:     "normal",
		FontVariant:   "normal",
		FontColor:     "#000",
		FontFamily:    "sans-serif",
		TextAlign:     "center",
		TextBaseline:  "alphabetic",
		BlindFontSize: 16,
		BlindOpacity:  0.005,
	}
}

// solidDataURL returns a PNG data URL of a w×h image filled with c.
func solidDataURL(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// opaqueBounds returns the bounding box of pixels with alpha above min.
func opaqueBounds(img *image.RGBA, min uint8) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A > min {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestDrawTileSize(t *testing.T) {
	tests := []struct {
		name         string
		w, h, gx, gy float64
		wantW, wantH float64
		wantPixelsW  int
		wantPixelsH  int
	}{
		{"defaults", 120, 60, 100, 100, 220, 160, 220, 160},
		{"no gaps", 80, 40, 0, 0, 80, 40, 80, 40},
		{"fractional", 100.5, 50, 10, 10.25, 110.5, 60.25, 110, 60},
	}
	r := NewRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := baseOptions()
			o.Width, o.Height, o.GapX, o.GapY = tt.w, tt.h, tt.gx, tt.gy
			tile, err := r.Draw(context.Background(), o)
			if err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			if tile.Width != tt.wantW || tile.Height != tt.wantH {
				t.Errorf("tile size = %gx%g, want %gx%g", tile.Width, tile.Height, tt.wantW, tt.wantH)
			}
			b := tile.Image.Bounds()
			if b.Dx() != tt.wantPixelsW || b.Dy() != tt.wantPixelsH {
				t.Errorf("pixel size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantPixelsW, tt.wantPixelsH)
			}
			if !strings.HasPrefix(tile.URL, "data:image/png;base64,") {
				t.Errorf("URL prefix = %q", tile.URL[:min(len(tile.URL), 30)])
			}
		})
	}
}

func TestDrawTextProducesPixels(t *testing.T) {
	o := baseOptions()
	o.Opacity = 1
	tile, err := NewRenderer().Draw(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	if opaqueBounds(tile.Image, 0).Empty() {
		t.Error("text tile has no visible pixels")
	}
}

func TestDrawNoContent(t *testing.T) {
	o := baseOptions()
	o.Text = nil
	if _, err := NewRenderer().Draw(context.Background(), o); !errors.Is(err, ErrNoDrawableContent) {
		t.Errorf("Draw() error = %v, want ErrNoDrawableContent", err)
	}
	o.Text = Lines{"  "}
	if _, err := NewRenderer().Draw(context.Background(), o); !errors.Is(err, ErrNoDrawableContent) {
		t.Errorf("Draw() blank text error = %v, want ErrNoDrawableContent", err)
	}
}

func TestDrawNoContext(t *testing.T) {
	o := baseOptions()
	o.Width, o.GapX = 0, 0
	if _, err := NewRenderer().Draw(context.Background(), o); !errors.Is(err, ErrNoContext) {
		t.Errorf("Draw() error = %v, want ErrNoContext", err)
	}
}

func TestDrawCanvasLimits(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
	}{
		{"huge", 1e10, 1e10},
		{"wide side", MaxCanvasSide, 10},
		{"area", 20000, 20000},
		{"infinite", math.Inf(1), 60},
		{"nan", math.NaN(), 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := baseOptions()
			o.Width, o.Height = tt.width, tt.height
			tile, err := NewRenderer().Draw(context.Background(), o)
			if !errors.Is(err, ErrNoContext) {
				t.Errorf("Draw(%gx%g) error = %v, want ErrNoContext", tt.width, tt.height, err)
			}
			if tile != nil {
				t.Errorf("Draw(%gx%g) returned a tile", tt.width, tt.height)
			}
		})
	}
}

func TestContentTransformKeepsCentre(t *testing.T) {
	o := baseOptions()
	ox, oy := o.origin()
	want := [2]float64{ox + o.Width/2, oy + o.Height/2}
	for _, deg := range []float64{0, -24, 45, 90, 180, 333} {
		o.Rotate = deg
		m := contentTransform(o)
		x := m.A*o.Width/2 + m.B*o.Height/2 + m.C
		y := m.D*o.Width/2 + m.E*o.Height/2 + m.F
		if math.Abs(x-want[0]) > 1e-9 || math.Abs(y-want[1]) > 1e-9 {
			t.Errorf("rotate %g: centre maps to (%g, %g), want (%g, %g)", deg, x, y, want[0], want[1])
		}
	}
}

func TestOffsetDefaultsToHalfGap(t *testing.T) {
	o := baseOptions()
	if x, y := o.origin(); x != 50 || y != 50 {
		t.Errorf("origin = (%g, %g), want (50, 50)", x, y)
	}
	o.OffsetX, o.OffsetY = 10, 20
	if x, y := o.origin(); x != 10 || y != 20 {
		t.Errorf("origin = (%g, %g), want (10, 20)", x, y)
	}
}

func TestImageRotationKeepsBoundingBox(t *testing.T) {
	o := baseOptions()
	o.Width, o.Height = 60, 60
	o.Opacity = 1
	o.Image = solidDataURL(t, 4, 4, color.RGBA{255, 0, 0, 255})

	r := NewRenderer()
	var boxes []image.Rectangle
	for _, deg := range []float64{0, 90, 180} {
		o.Rotate = deg
		tile, err := r.Draw(context.Background(), o)
		if err != nil {
			t.Fatalf("rotate %g: %v", deg, err)
		}
		if tile.Width != 160 || tile.Height != 160 {
			t.Fatalf("rotate %g: tile %gx%g", deg, tile.Width, tile.Height)
		}
		boxes = append(boxes, opaqueBounds(tile.Image, 127))
	}
	want := image.Rect(50, 50, 110, 110)
	for i, b := range boxes {
		if abs(b.Min.X-want.Min.X) > 1 || abs(b.Min.Y-want.Min.Y) > 1 ||
			abs(b.Max.X-want.Max.X) > 1 || abs(b.Max.Y-want.Max.Y) > 1 {
			t.Errorf("box %d = %v, want ~%v", i, b, want)
		}
	}
}

func TestImageTakesPrecedenceOverText(t *testing.T) {
	o := baseOptions()
	o.Rotate = 0
	o.Opacity = 1
	o.Image = solidDataURL(t, 2, 2, color.RGBA{0, 0, 255, 255})
	tile, err := NewRenderer().Draw(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	c := tile.Image.RGBAAt(110, 80)
	if c.B != 255 || c.R != 0 {
		t.Errorf("centre pixel = %v, want solid blue image", c)
	}
}

func TestBlindLayerIsFaint(t *testing.T) {
	o := baseOptions()
	o.Rotate = 0
	o.Text = Lines{"x"}
	o.Opacity = 0
	o.OffsetY = 30
	o.BlindText = "secret-blind-payload"
	o.BlindOpacity = 0.02

	tile, err := NewRenderer().Draw(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	b := opaqueBounds(tile.Image, 0)
	if b.Empty() {
		t.Fatal("blind text left no pixels")
	}
	maxA := uint8(0)
	for i := 3; i < len(tile.Image.Pix); i += 4 {
		maxA = max(maxA, tile.Image.Pix[i])
	}
	if maxA > 6 {
		t.Errorf("blind layer max alpha = %d, want faint", maxA)
	}
}

func TestTextFaceHalvesOnce(t *testing.T) {
	r := NewRenderer()
	o := baseOptions()
	o.FontSize = 20

	face, err := r.textFace(o)
	if err != nil {
		t.Fatal(err)
	}
	if face.Size() != 20 {
		t.Errorf("short text size = %g, want 20", face.Size())
	}

	o.Text = Lines{"short", strings.Repeat("very long watermark text ", 8)}
	face, err = r.textFace(o)
	if err != nil {
		t.Fatal(err)
	}
	if face.Size() != 10 {
		t.Errorf("long text size = %g, want 10 (halved once)", face.Size())
	}
}

func TestFontLookup(t *testing.T) {
	b := newFontBook()
	tests := []struct {
		spec fontSpec
		want string
	}{
		{fontSpec{family: "sans-serif", weight: "400"}, "goregular"},
		{fontSpec{family: "sans-serif", weight: "bold"}, "gobold"},
		{fontSpec{family: "sans-serif", weight: "700", style: "italic"}, "gobolditalic"},
		{fontSpec{family: "sans-serif", weight: "500"}, "gomedium"},
		{fontSpec{family: "'Fira Mono', monospace", weight: "400"}, "gomono"},
		{fontSpec{family: "serif", variant: "small-caps"}, "gosmallcaps"},
		{fontSpec{family: "serif", style: "oblique 10deg"}, "goitalic"},
	}
	for _, tt := range tests {
		if key, _ := b.lookup(tt.spec); key != tt.want {
			t.Errorf("lookup(%+v) = %q, want %q", tt.spec, key, tt.want)
		}
	}

	b.register("Brand Sans", []byte("not-a-font"))
	if key, _ := b.lookup(fontSpec{family: `"Brand Sans", sans-serif`}); key != "custom:brand sans" {
		t.Errorf("custom lookup = %q", key)
	}
	if _, err := b.face(fontSpec{family: "Brand Sans"}, 12); err == nil {
		t.Error("invalid custom font data should fail")
	}
}

func TestImageLoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "" {
			t.Errorf("Referer sent: %q", r.Header.Get("Referer"))
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	o := baseOptions()
	o.Image = srv.URL + "/logo.png"
	_, err := NewRenderer().Draw(context.Background(), o)
	if !errors.Is(err, ErrImageLoad) {
		t.Fatalf("Draw() error = %v, want ErrImageLoad", err)
	}
	var le *ImageLoadError
	if !errors.As(err, &le) || le.Src != o.Image {
		t.Errorf("error = %#v, want *ImageLoadError for %s", err, o.Image)
	}
}

func TestImageLoadTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	stuck := LoaderFunc(func(ctx context.Context, src string) (image.Image, error) {
		<-block // ignores ctx on purpose
		return nil, errors.New("unreachable")
	})

	o := baseOptions()
	o.Image = "https://example.invalid/slow.png"
	r := NewRenderer(WithLoader(stuck), WithImageTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := r.Draw(context.Background(), o)
	if !errors.Is(err, ErrImageLoad) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Draw() error = %v, want ErrImageLoad wrapping DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Draw() did not honour the image timeout")
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, err := decodeDataURL("data:text/plain,hello%20world")
	if err != nil || string(data) != "hello world" {
		t.Errorf("decodeDataURL() = %q, %v", data, err)
	}
	if _, err := decodeDataURL("data:image/png;base64"); err == nil {
		t.Error("missing comma should fail")
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestComposeLines(t *testing.T) {
	in := Lines{"Cafe\u0301", "plain"}
	got := composeLines(in)
	if got[0] != "Caf\u00e9" || got[1] != "plain" {
		t.Errorf("composeLines() = %q", got)
	}
	if in[0] != "Cafe\u0301" {
		t.Error("composeLines modified its input")
	}
}
