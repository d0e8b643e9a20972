// Package pattern rasterizes watermark tiles.
//
// A tile is one repeatable unit of the overlay: the content box
// (Width × Height) plus the gaps, so that repeating the tile as a CSS
// background produces an evenly spaced grid. The content is either an
// image, scaled to fill the content box, or one or more lines of text.
// Content is rotated about the centre of the content box, which keeps the
// tile's bounding box unchanged for every angle.
//
// An optional blind text is drawn first at a very low opacity, beneath
// the visible layer. See package blind for the matching decoder.
//
// Text uses the gg text engine (github.com/gogpu/gg/text) with the Go font
// family; transforms are composed as gg.Matrix values and applied with
// golang.org/x/image/draw.
//
// Example:
//
//	r := pattern.NewRenderer()
//	tile, err := r.Draw(ctx, pattern.Options{
//	    Text: pattern.Lines{"confidential"}, Width: 120, Height: 60,
//	    GapX: 100, GapY: 100, Opacity: 0.15, Rotate: -24,
//	    FontSize: 16, FontColor: "#000",
//	})
//	// tile.URL is a data:image/png;base64 URL of a 220×160 image.
package pattern
