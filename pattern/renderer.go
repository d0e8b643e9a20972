package pattern

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/watermark/internal/wmlog"
)

// DefaultImageTimeout bounds a single image load.
const DefaultImageTimeout = 10 * time.Second

var errEmptyImage = errors.New("empty image")

// Canvas limits. Larger tiles fail with ErrNoContext.
const (
	MaxCanvasSide = 32767
	MaxCanvasArea = 268435456
)

// lineGap is the vertical padding between text lines.
const lineGap = 4

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLoader replaces the image loader.
func WithLoader(l Loader) RendererOption {
	return func(r *Renderer) {
		r.loader = l
	}
}

// WithImageTimeout sets the per-load timeout. Non-positive values disable it;
// the caller's context still applies.
func WithImageTimeout(d time.Duration) RendererOption {
	return func(r *Renderer) {
		r.imageTimeout = d
	}
}

// WithFont registers TrueType/OpenType data under a CSS family name.
// Registered families take precedence over the built-in Go fonts.
func WithFont(family string, data []byte) RendererOption {
	return func(r *Renderer) {
		r.fonts.register(family, data)
	}
}

// Renderer draws tiles. It holds no per-tile state and is safe for
// concurrent use.
type Renderer struct {
	loader       Loader
	imageTimeout time.Duration
	fonts        *fontBook
}

// NewRenderer creates a renderer with the URL loader and the Go fonts.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		loader:       &URLLoader{},
		imageTimeout: DefaultImageTimeout,
		fonts:        newFontBook(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRenderer     *Renderer
	defaultRendererOnce sync.Once
)

// Default returns the shared renderer used when none is configured.
func Default() *Renderer {
	defaultRendererOnce.Do(func() {
		defaultRenderer = NewRenderer()
	})
	return defaultRenderer
}

// Draw renders one tile for o.
//
// Loading an image is the only step that blocks; it honours ctx and the
// renderer's image timeout and fails with an *ImageLoadError.
func (r *Renderer) Draw(ctx context.Context, o Options) (*Tile, error) {
	hasImage := o.Image != ""
	if !hasImage && !o.Text.HasContent() {
		return nil, ErrNoDrawableContent
	}

	tw, th := o.TileSize()
	if !(tw >= 1 && th >= 1) || o.Width <= 0 || o.Height <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrNoContext, tw, th)
	}
	if tw > MaxCanvasSide || th > MaxCanvasSide || math.Floor(tw)*math.Floor(th) > MaxCanvasArea {
		return nil, fmt.Errorf("%w: %gx%g exceeds canvas limits", ErrNoContext, tw, th)
	}
	cw, ch := int(math.Floor(tw)), int(math.Floor(th))

	var src image.Image
	if hasImage {
		var err error
		if src, err = r.loadImage(ctx, o.Image); err != nil {
			return nil, err
		}
	}

	o.Text = composeLines(o.Text)
	canvas := image.NewRGBA(image.Rect(0, 0, cw, ch))
	m := contentTransform(o)

	// The blind layer goes first so the visible layer composites over it.
	if o.BlindText != "" {
		face, err := r.fonts.face(fontSpec{family: "sans-serif"}, o.BlindFontSize)
		if err != nil {
			return nil, err
		}
		l := textLayer(o.BlindText, face, color.Black, "start", "alphabetic", 0, 0)
		l.fade(o.BlindOpacity)
		l.drawTo(canvas, m)
	}

	if hasImage {
		l := imageLayer(src, o.Width, o.Height)
		l.fade(o.Opacity)
		l.drawTo(canvas, m)
	} else if err := r.drawText(canvas, m, o); err != nil {
		return nil, err
	}

	return newTile(canvas, tw, th)
}

func (r *Renderer) drawText(canvas *image.RGBA, m gg.Matrix, o Options) error {
	face, err := r.textFace(o)
	if err != nil {
		return err
	}

	col, err := ParseColor(o.FontColor)
	if err != nil {
		// A canvas keeps its default fill style for an invalid color.
		wmlog.Get().Debug("pattern: invalid font color, using black", "color", o.FontColor)
		col = color.NRGBA{A: 255}
	}

	n := float64(len(o.Text))
	y0 := (o.Height - (o.FontSize+lineGap)*n - lineGap*(n-1)) / 2
	y0 = math.Max(y0, 0)

	for i, line := range o.Text {
		if line == "" {
			continue
		}
		y := y0 + o.FontSize*float64(i+1) + lineGap*float64(i)
		l := textLayer(line, face, col, o.TextAlign, o.TextBaseline, o.Width/2, y)
		l.fade(o.Opacity)
		l.drawTo(canvas, m)
	}
	return nil
}

// textFace returns the face for the visible text. A line wider than the
// content box halves the font size once; there is no further shrinking.
func (r *Renderer) textFace(o Options) (text.Face, error) {
	spec := fontSpec{
		family:  o.FontFamily,
		weight:  o.FontWeight,
		style:   strings.ToLower(o.FontStyle),
		variant: strings.ToLower(o.FontVariant),
	}
	face, err := r.fonts.face(spec, o.FontSize)
	if err != nil {
		return nil, err
	}
	widest := 0.0
	for _, line := range o.Text {
		widest = math.Max(widest, face.Advance(line))
	}
	if widest > o.Width {
		return r.fonts.face(spec, o.FontSize/2)
	}
	return face, nil
}

func (r *Renderer) loadImage(ctx context.Context, src string) (image.Image, error) {
	if r.imageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.imageTimeout)
		defer cancel()
	}

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := r.loader.Load(ctx, src)
		done <- result{img, err}
	}()

	// Loaders that ignore ctx must not hang the render.
	select {
	case res := <-done:
		if res.err != nil {
			return nil, &ImageLoadError{Src: src, Err: res.err}
		}
		if res.img == nil || res.img.Bounds().Empty() {
			return nil, &ImageLoadError{Src: src, Err: errEmptyImage}
		}
		return res.img, nil
	case <-ctx.Done():
		return nil, &ImageLoadError{Src: src, Err: ctx.Err()}
	}
}

// composeLines returns the lines in NFC, so combining sequences measure and
// draw as the precomposed glyphs the fonts carry.
func composeLines(lines Lines) Lines {
	out := make(Lines, len(lines))
	for i, l := range lines {
		out[i] = norm.NFC.String(l)
	}
	return out
}
