package watermark

import (
	"errors"

	"github.com/gogpu/watermark/overlay"
	"github.com/gogpu/watermark/pattern"
)

// Sentinel errors. Errors returned by New and Update wrap one of these.
var (
	// ErrContainerNotFound means the container selector matched nothing.
	ErrContainerNotFound = overlay.ErrContainerNotFound

	// ErrNoDrawableContent means neither image nor text was given.
	ErrNoDrawableContent = pattern.ErrNoDrawableContent

	// ErrNoContext means the tile has no drawable area.
	ErrNoContext = pattern.ErrNoContext

	// ErrImageLoad means the image source failed or timed out.
	ErrImageLoad = pattern.ErrImageLoad

	// ErrDestroyed is returned by Update after Destroy.
	ErrDestroyed = errors.New("watermark: destroyed")

	// ErrSuperseded is returned by Update when a newer render started
	// before its tile was drawn. The tile is discarded.
	ErrSuperseded = errors.New("watermark: render superseded")

	// ErrUnknownFormat is returned for config formats other than
	// yaml, toml and json.
	ErrUnknownFormat = errors.New("watermark: unknown config format")
)
