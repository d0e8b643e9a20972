package watermark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/internal/wmlog"
	"github.com/gogpu/watermark/overlay"
	"github.com/gogpu/watermark/pattern"
)

// Repeat selects how the tile covers the container.
type Repeat = overlay.Repeat

// Repeat modes.
const (
	RepeatNone     = overlay.RepeatNone
	RepeatNormal   = overlay.RepeatNormal
	RepeatMultiply = overlay.RepeatMultiply
)

// Options is the effective configuration of a watermark.
//
// Config documents use the camelCase key of each field. The container is
// given as a selector under the "container" key.
type Options struct {
	pattern.Options `yaml:",inline"`

	// Container is the element to mount into. It wins over Selector.
	Container *dom.Node `json:"-" yaml:"-" toml:"-"`
	// Selector is looked up at every render. It must match.
	Selector string `json:"container,omitempty" yaml:"container,omitempty" toml:"container,omitempty"`

	Repeat Repeat `json:"repeat" yaml:"repeat" toml:"repeat"`
	// Position is the background-position used with RepeatNone.
	Position string `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
	ZIndex   int    `json:"zIndex" yaml:"zIndex" toml:"zIndex"`
	// ScrollHeight overrides the overlay height. A bare number is pixels.
	ScrollHeight Length `json:"scrollHeight,omitempty" yaml:"scrollHeight,omitempty" toml:"scrollHeight,omitempty"`

	// Secure re-renders the watermark when its nodes are tampered with.
	Secure bool `json:"secure" yaml:"secure" toml:"secure"`

	renderer     *pattern.Renderer
	pollInterval time.Duration
}

// defaults is never modified; DefaultOptions hands out copies.
var defaults = Options{
	Options: pattern.Options{
		GapX:          100,
		GapY:          100,
		Width:         120,
		Height:        60,
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
	},
	Repeat: RepeatMultiply,
	ZIndex: 9999,
	Secure: true,
}

// DefaultOptions returns the options a watermark starts from.
func DefaultOptions() Options {
	return defaults.clone()
}

func (o Options) clone() Options {
	o.Text = slices.Clone(o.Text)
	return o
}

// Option changes one or more fields of the effective options. Options are
// applied left to right; the last write to a field wins.
type Option func(*Options)

// WithContainer mounts into n. It clears any selector.
func WithContainer(n *dom.Node) Option {
	return func(o *Options) {
		o.Container = n
		o.Selector = ""
	}
}

// WithSelector mounts into the first element matching sel. It clears any
// container node.
func WithSelector(sel string) Option {
	return func(o *Options) {
		o.Selector = sel
		o.Container = nil
	}
}

// WithImage draws src instead of text.
func WithImage(src string) Option {
	return func(o *Options) { o.Image = src }
}

// WithText sets the text lines.
func WithText(lines ...string) Option {
	return func(o *Options) { o.Text = slices.Clone(pattern.Lines(lines)) }
}

// WithSize sets the content box of one tile.
func WithSize(width, height float64) Option {
	return func(o *Options) { o.Width, o.Height = width, height }
}

// WithGap sets the spacing between tiles.
func WithGap(x, y float64) Option {
	return func(o *Options) { o.GapX, o.GapY = x, y }
}

// WithOffset moves the content box inside the tile. Zero means half the gap.
func WithOffset(x, y float64) Option {
	return func(o *Options) { o.OffsetX, o.OffsetY = x, y }
}

// WithOpacity sets the opacity of the visible layer.
func WithOpacity(a float64) Option {
	return func(o *Options) { o.Opacity = a }
}

// WithRotate sets the rotation in degrees.
func WithRotate(deg float64) Option {
	return func(o *Options) { o.Rotate = deg }
}

// WithFont sets the CSS font family, size and weight.
func WithFont(family string, size float64, weight string) Option {
	return func(o *Options) {
		o.FontFamily, o.FontSize, o.FontWeight = family, size, weight
	}
}

// WithFontSize sets the font size in pixels.
func WithFontSize(size float64) Option {
	return func(o *Options) { o.FontSize = size }
}

// WithFontStyle sets font style and variant, e.g. "italic" and "small-caps".
func WithFontStyle(style, variant string) Option {
	return func(o *Options) { o.FontStyle, o.FontVariant = style, variant }
}

// WithFontColor sets the text color as a CSS color.
func WithFontColor(c string) Option {
	return func(o *Options) { o.FontColor = c }
}

// WithTextLayout sets canvas textAlign and textBaseline.
func WithTextLayout(align, baseline string) Option {
	return func(o *Options) { o.TextAlign, o.TextBaseline = align, baseline }
}

// WithRepeat sets the repeat mode.
func WithRepeat(r Repeat) Option {
	return func(o *Options) { o.Repeat = r }
}

// WithPosition sets the background-position used with RepeatNone.
func WithPosition(pos string) Option {
	return func(o *Options) { o.Position = pos }
}

// WithZIndex sets the stacking order of the overlay.
func WithZIndex(z int) Option {
	return func(o *Options) { o.ZIndex = z }
}

// WithScrollHeight sets an explicit overlay height, e.g. "2400" or "100vh".
func WithScrollHeight(h string) Option {
	return func(o *Options) { o.ScrollHeight = Length(h) }
}

// WithSecure turns self-healing on or off.
func WithSecure(on bool) Option {
	return func(o *Options) { o.Secure = on }
}

// WithBlind sets the blind layer text, font size and opacity.
func WithBlind(text string, size, opacity float64) Option {
	return func(o *Options) {
		o.BlindText, o.BlindFontSize, o.BlindOpacity = text, size, opacity
	}
}

// WithRenderer draws tiles with r instead of pattern.Default().
func WithRenderer(r *pattern.Renderer) Option {
	return func(o *Options) { o.renderer = r }
}

// WithPollInterval enables the polling guard for documents without
// mutation observation. Zero disables it.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) { o.pollInterval = d }
}

// Length is a CSS length. Config documents may give it as a number, which
// is read as pixels.
type Length string

// UnmarshalJSON implements json.Unmarshaler.
func (l *Length) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Length(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("watermark: scrollHeight: %w", err)
	}
	*l = Length(n.String())
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Length) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("watermark: scrollHeight must be a scalar, line %d", n.Line)
	}
	*l = Length(n.Value)
	return nil
}

// ParseConfig decodes a YAML, TOML or JSON document into an Option that
// overwrites exactly the keys present in data. The document is validated
// here; if applying it still fails, the Option logs a warning and leaves the
// options unchanged.
func ParseConfig(data []byte, format string) (Option, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	var parsed Options
	if err := decodeConfig(data, format, &parsed); err != nil {
		return nil, err
	}
	return func(o *Options) {
		applyConfig(o, data, format, parsed.Text != nil, parsed.Selector != "")
	}, nil
}

// applyConfig decodes data over a copy of o and stores the result only if
// decoding succeeds. A failure is logged and leaves o unchanged.
func applyConfig(o *Options, data []byte, format string, hasText, hasSelector bool) {
	next := o.clone()
	if hasText {
		next.Text = nil
	}
	if err := decodeConfig(data, format, &next); err != nil {
		wmlog.Get().Warn("watermark: config not applied", "format", format, "err", err)
		return
	}
	if hasSelector {
		next.Container = nil
	}
	*o = next
}

// LoadConfig reads a config file; the format follows the extension
// (.yaml, .yml, .toml or .json).
func LoadConfig(path string) (Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data, filepath.Ext(path))
}

func decodeConfig(data []byte, format string, o *Options) error {
	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, o)
	case "toml":
		err = toml.Unmarshal(data, o)
	case "json":
		err = json.Unmarshal(data, o)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("watermark: decode %s config: %w", format, err)
	}
	return nil
}
