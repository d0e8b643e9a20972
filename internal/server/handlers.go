package server

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/gogpu/watermark"
	"github.com/gogpu/watermark/blind"
	"github.com/gogpu/watermark/dom"
)

// tileQuery holds the options accepted in the query string. Absent keys
// keep the configured value.
type tileQuery struct {
	Text         []string `form:"text"`
	Width        *float64 `form:"width" binding:"omitempty,gt=0,lte=4096"`
	Height       *float64 `form:"height" binding:"omitempty,gt=0,lte=4096"`
	GapX         *float64 `form:"gapX" binding:"omitempty,gte=0,lte=4096"`
	GapY         *float64 `form:"gapY" binding:"omitempty,gte=0,lte=4096"`
	Opacity      *float64 `form:"opacity" binding:"omitempty,gte=0,lte=1"`
	Rotate       *float64 `form:"rotate"`
	FontSize     *float64 `form:"fontSize" binding:"omitempty,gt=0,lte=512"`
	FontWeight   *string  `form:"fontWeight"`
	FontColor    *string  `form:"fontColor"`
	FontFamily   *string  `form:"fontFamily"`
	BlindText    *string  `form:"blindText"`
	BlindOpacity *float64 `form:"blindOpacity" binding:"omitempty,gte=0,lte=1"`
	Repeat       *string  `form:"repeat" binding:"omitempty,oneof=none normal multiply"`
}

func (q *tileQuery) options() []watermark.Option {
	var opts []watermark.Option
	add := func(o watermark.Option) { opts = append(opts, o) }
	if len(q.Text) > 0 {
		add(watermark.WithText(q.Text...))
	}
	setF := func(p *float64, set func(*watermark.Options, float64)) {
		if p != nil {
			v := *p
			add(func(o *watermark.Options) { set(o, v) })
		}
	}
	setS := func(p *string, set func(*watermark.Options, string)) {
		if p != nil {
			v := *p
			add(func(o *watermark.Options) { set(o, v) })
		}
	}
	setF(q.Width, func(o *watermark.Options, v float64) { o.Width = v })
	setF(q.Height, func(o *watermark.Options, v float64) { o.Height = v })
	setF(q.GapX, func(o *watermark.Options, v float64) { o.GapX = v })
	setF(q.GapY, func(o *watermark.Options, v float64) { o.GapY = v })
	setF(q.Opacity, func(o *watermark.Options, v float64) { o.Opacity = v })
	setF(q.Rotate, func(o *watermark.Options, v float64) { o.Rotate = v })
	setF(q.FontSize, func(o *watermark.Options, v float64) { o.FontSize = v })
	setF(q.BlindOpacity, func(o *watermark.Options, v float64) { o.BlindOpacity = v })
	setS(q.FontWeight, func(o *watermark.Options, v string) { o.FontWeight = v })
	setS(q.FontColor, func(o *watermark.Options, v string) { o.FontColor = v })
	setS(q.FontFamily, func(o *watermark.Options, v string) { o.FontFamily = v })
	setS(q.BlindText, func(o *watermark.Options, v string) { o.BlindText = v })
	setS(q.Repeat, func(o *watermark.Options, v string) { o.Repeat = watermark.Repeat(v) })
	return opts
}

// effective merges the configured base and the query over the defaults.
func effective(c *gin.Context, cfg *Config) (watermark.Options, []watermark.Option, bool) {
	var q tileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return watermark.Options{}, nil, false
	}
	opts := append(append([]watermark.Option{}, cfg.Base...), q.options()...)
	o := watermark.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o, opts, true
}

func handleTile(c *gin.Context, cfg *Config) {
	o, _, ok := effective(c, cfg)
	if !ok {
		return
	}
	tile, err := cfg.Renderer.Draw(c.Request.Context(), o.Options)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	data, err := tile.PNG()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode tile"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

func handleReveal(c *gin.Context, cfg *Config) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUpload)
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
		return
	}
	defer file.Close()

	conf, _, err := image.DecodeConfig(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image: " + err.Error()})
		return
	}
	if conf.Width <= 0 || conf.Height <= 0 || conf.Width > cfg.MaxPixels/conf.Height {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image dimensions too large"})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image: " + err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, blind.RevealImage(img)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode image"})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

const previewPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Watermark preview</title></head>
<body><main id="app" style="position:relative;min-height:100vh"><h1>Watermark preview</h1></main></body></html>`

func handlePreview(c *gin.Context, cfg *Config) {
	_, opts, ok := effective(c, cfg)
	if !ok {
		return
	}
	doc, err := dom.Parse(strings.NewReader(previewPage))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opts = append(opts,
		watermark.WithSelector("#app"),
		watermark.WithSecure(false),
		watermark.WithRenderer(cfg.Renderer),
	)
	wm, err := watermark.New(c.Request.Context(), doc, opts...)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	defer wm.Destroy()

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, watermark.ErrNoDrawableContent), errors.Is(err, watermark.ErrNoContext):
		return http.StatusUnprocessableEntity
	case errors.Is(err, watermark.ErrImageLoad):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
