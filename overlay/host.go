package overlay

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gogpu/watermark/dom"
	"github.com/gogpu/watermark/internal/wmlog"
	"github.com/gogpu/watermark/pattern"
)

// TagAttribute is the attribute carrying a watermark's identity tag.
const TagAttribute = "data-watermark-tag"

// ErrNotAttached is returned by Mount before Attach.
var ErrNotAttached = errors.New("overlay: host not attached")

// Repeat selects how the tile covers the container.
type Repeat string

// Repeat modes.
const (
	// RepeatNone places a single copy at Layout.Position.
	RepeatNone Repeat = "none"

	// RepeatNormal tiles the image with the browser's native repeat.
	RepeatNormal Repeat = "normal"

	// RepeatMultiply layers two repeating copies, the second offset by half
	// a tile in each direction.
	RepeatMultiply Repeat = "multiply"
)

// Layout is the placement part of the options applied by Mount.
type Layout struct {
	Repeat Repeat

	// Position is the background-position used with RepeatNone.
	// Empty means "center".
	Position string

	ZIndex int

	// Fixed covers the viewport instead of the container.
	Fixed bool

	// ScrollHeight sets an explicit height. A bare number is taken as pixels.
	ScrollHeight string
}

// Host manages the overlay nodes of one watermark. It is not safe for
// concurrent use.
type Host struct {
	doc  *dom.Document
	attr string
	tag  string

	node    *dom.Node
	root    *dom.Node
	content *dom.Node
	style   Style
}

// NewHost returns a host whose nodes are marked with attr=tag.
func NewHost(doc *dom.Document, attr, tag string) *Host {
	h := &Host{doc: doc, attr: attr, tag: tag}
	h.style.Set("pointer-events", "none")
	h.style.Set("position", "absolute")
	h.style.Set("inset", "0")
	return h
}

// Attach makes sure the host element is a child of container. The element
// is created on first use and moved when the container changes.
func (h *Host) Attach(container *dom.Node) error {
	if h.node == nil {
		node := h.doc.CreateElement("div")
		node.SetAttribute("style", "pointer-events:none;")
		node.SetAttribute(h.attr, h.tag)
		if err := container.AppendChild(node); err != nil {
			return err
		}
		h.node = node
		h.root = nil
	} else if h.node.Parent() != container {
		if err := container.AppendChild(h.node); err != nil {
			return err
		}
	}

	if h.root == nil {
		root, err := h.node.AttachShadow()
		switch {
		case err == nil:
			h.root = root
		case errors.Is(err, dom.ErrShadowAttached):
			h.root = h.node.ShadowRoot()
		default:
			wmlog.Get().Debug("overlay: shadow DOM unavailable, mounting into host", "err", err)
			h.root = h.node
		}
	}
	return nil
}

// Mount shows tile in the overlay, replacing whatever was mounted before.
func (h *Host) Mount(tile *pattern.Tile, l Layout) error {
	if h.node == nil {
		return ErrNotAttached
	}
	if h.content == nil {
		h.content = h.doc.CreateElement("div")
	}

	h.applyLayout(tile, l)
	h.content.SetAttribute("style", h.style.String())
	h.content.SetAttribute(h.attr, h.tag)

	for _, c := range h.root.Children() {
		if c != h.content {
			c.Remove()
		}
	}
	if h.content.Parent() != h.root {
		return h.root.AppendChild(h.content)
	}
	return nil
}

func (h *Host) applyLayout(tile *pattern.Tile, l Layout) {
	s := &h.style
	s.Set("z-index", strconv.Itoa(l.ZIndex))

	img := "url(" + tile.URL + ")"
	switch l.Repeat {
	case RepeatMultiply:
		s.Set("background-image", img+", "+img)
		s.Set("background-position", px(tile.Width/2)+" "+px(tile.Height/2)+", 0 0")
		s.Delete("background-repeat")
	case RepeatNone:
		s.Set("background-image", img)
		s.Set("background-repeat", "no-repeat")
		pos := l.Position
		if pos == "" {
			pos = "center"
		}
		s.Set("background-position", pos)
	default:
		s.Set("background-image", img)
		s.Delete("background-repeat")
		s.Delete("background-position")
	}

	if l.Fixed {
		s.Set("position", "fixed")
	} else {
		s.Set("position", "absolute")
	}

	if l.ScrollHeight != "" {
		s.Set("height", cssLength(l.ScrollHeight))
	} else {
		s.Delete("height")
	}
}

// Show clears a previous Hide.
func (h *Host) Show() { h.setDisplay("block") }

// Hide hides the content without unmounting it.
func (h *Host) Hide() { h.setDisplay("none") }

// Hidden reports whether the last display change was Hide.
func (h *Host) Hidden() bool {
	v, _ := h.style.Get("display")
	return v == "none"
}

func (h *Host) setDisplay(v string) {
	h.style.Set("display", v)
	if h.content != nil {
		h.content.SetAttribute("style", h.style.String())
	}
}

// Unmount removes the host and content elements. The style, including the
// display state, is kept for the next Mount. Unmount is a no-op when
// nothing is mounted.
func (h *Host) Unmount() {
	if h.node != nil {
		h.node.Remove()
	}
	if h.content != nil {
		h.content.Remove()
	}
	h.node, h.root, h.content = nil, nil, nil
}

// Node returns the host element, or nil.
func (h *Host) Node() *dom.Node { return h.node }

// Root returns the node the content is mounted into: the host's shadow root
// or, without shadow DOM, the host itself.
func (h *Host) Root() *dom.Node { return h.root }

// Content returns the element carrying the tile, or nil.
func (h *Host) Content() *dom.Node { return h.content }

// Style returns the serialized content style.
func (h *Host) Style() string { return h.style.String() }

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// cssLength appends px to a bare number.
func cssLength(s string) string {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s + "px"
	}
	return s
}
