// Package server exposes tile rendering, blind reveal and an HTML preview
// over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gogpu/watermark"
	"github.com/gogpu/watermark/internal/wmlog"
	"github.com/gogpu/watermark/pattern"
)

// Limits for images accepted by /reveal.
const (
	DefaultMaxUpload = 16 << 20
	DefaultMaxPixels = 64 << 20
)

// Config holds the server configuration.
type Config struct {
	// Base options are applied over the defaults before query parameters.
	Base []watermark.Option
	// Renderer draws tiles; nil means pattern.Default().
	Renderer *pattern.Renderer
	// MaxUpload is the largest accepted /reveal body in bytes.
	MaxUpload int64
	// MaxPixels is the largest accepted /reveal image area.
	MaxPixels int
}

// New returns the router. Routes:
//
//	GET  /health     liveness check
//	GET  /tile.png   one tile, options from the query string
//	POST /reveal     multipart "image" field, returns the revealed PNG
//	GET  /preview    HTML page with a mounted watermark
func New(cfg Config) *gin.Engine {
	if cfg.Renderer == nil {
		cfg.Renderer = pattern.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.MaxMultipartMemory = cfg.MaxUpload

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/tile.png", func(c *gin.Context) { handleTile(c, &cfg) })
	r.POST("/reveal", func(c *gin.Context) { handleReveal(c, &cfg) })
	r.GET("/preview", func(c *gin.Context) { handlePreview(c, &cfg) })
	return r
}

// requestLogger logs each request at debug level through the package logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		wmlog.Get().LogAttrs(c.Request.Context(), slog.LevelDebug, "server: request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
