package pattern

import (
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options are the drawing parameters of a tile. Zero values are drawn as
// zero; callers merge over defaults before drawing.
type Options struct {
	// Image is a data:, http(s)://, file:// URL or a file path. It takes
	// precedence over Text.
	Image string `json:"image,omitempty" yaml:"image,omitempty" toml:"image,omitempty"`
	// Text holds one line per element.
	Text Lines `json:"text,omitempty" yaml:"text,omitempty" toml:"text,omitempty"`

	Width   float64 `json:"width" yaml:"width" toml:"width"`
	Height  float64 `json:"height" yaml:"height" toml:"height"`
	GapX    float64 `json:"gapX" yaml:"gapX" toml:"gapX"`
	GapY    float64 `json:"gapY" yaml:"gapY" toml:"gapY"`
	OffsetX float64 `json:"offsetX" yaml:"offsetX" toml:"offsetX"`
	OffsetY float64 `json:"offsetY" yaml:"offsetY" toml:"offsetY"`

	Opacity float64 `json:"opacity" yaml:"opacity" toml:"opacity"`
	// Rotate is in degrees; positive values turn clockwise.
	Rotate float64 `json:"rotate" yaml:"rotate" toml:"rotate"`

	FontSize     float64 `json:"fontSize" yaml:"fontSize" toml:"fontSize"`
	FontWeight   string  `json:"fontWeight" yaml:"fontWeight" toml:"fontWeight"`
	FontStyle    string  `json:"fontStyle" yaml:"fontStyle" toml:"fontStyle"`
	FontVariant  string  `json:"fontVariant" yaml:"fontVariant" toml:"fontVariant"`
	FontColor    string  `json:"fontColor" yaml:"fontColor" toml:"fontColor"`
	FontFamily   string  `json:"fontFamily" yaml:"fontFamily" toml:"fontFamily"`
	TextAlign    string  `json:"textAlign" yaml:"textAlign" toml:"textAlign"`
	TextBaseline string  `json:"textBaseline" yaml:"textBaseline" toml:"textBaseline"`

	BlindText     string  `json:"blindText,omitempty" yaml:"blindText,omitempty" toml:"blindText,omitempty"`
	BlindFontSize float64 `json:"blindFontSize" yaml:"blindFontSize" toml:"blindFontSize"`
	BlindOpacity  float64 `json:"blindOpacity" yaml:"blindOpacity" toml:"blindOpacity"`
}

// TileSize returns the exact tile size: content box plus gaps.
func (o Options) TileSize() (w, h float64) {
	return o.Width + o.GapX, o.Height + o.GapY
}

// origin returns the content box origin; a zero offset means half the gap.
func (o Options) origin() (x, y float64) {
	x, y = o.OffsetX, o.OffsetY
	if x == 0 {
		x = o.GapX / 2
	}
	if y == 0 {
		y = o.GapY / 2
	}
	return x, y
}

// Lines is watermark text, one element per line. In YAML and JSON it
// accepts either a single string or a list of strings.
type Lines []string

// HasContent reports whether at least one line is not blank.
func (l Lines) HasContent() bool {
	for _, s := range l {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

var errLinesKind = errors.New("pattern: text must be a string or a list of strings")

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Lines) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*l = Lines{s}
	case yaml.SequenceNode:
		var ss []string
		if err := n.Decode(&ss); err != nil {
			return err
		}
		*l = ss
	default:
		return errLinesKind
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lines) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Lines{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return errLinesKind
	}
	*l = ss
	return nil
}
