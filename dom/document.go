package dom

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"weak"

	"github.com/ericchiang/css"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Option configures a Document during creation.
type Option func(*Document)

// WithoutShadowDOM creates a document whose elements cannot attach shadow roots.
func WithoutShadowDOM() Option {
	return func(d *Document) {
		d.shadowDOM = false
	}
}

// WithoutMutationObserver creates a document that refuses to create
// mutation observers.
func WithoutMutationObserver() Option {
	return func(d *Document) {
		d.observable = false
	}
}

// Document is a mutable HTML document.
//
// Node handles are held weakly. A handle the caller keeps stays the handle
// for its node; an unreferenced handle is collected with its node once the
// node leaves the document. Connected shadow hosts are pinned so their
// shadow roots survive.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	nodes     map[*html.Node]weak.Pointer[Node]
	pinned    map[*html.Node]*Node
	observers []*MutationObserver

	shadowDOM  bool
	observable bool
}

// New creates an empty document with html, head and body elements.
func New(opts ...Option) *Document {
	// Parsing an empty input cannot fail; the parser synthesizes the skeleton.
	root, _ := html.Parse(strings.NewReader(""))
	return newDocument(root, opts)
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root, opts), nil
}

func newDocument(root *html.Node, opts []Option) *Document {
	d := &Document{
		root:       root,
		nodes:      make(map[*html.Node]weak.Pointer[Node]),
		pinned:     make(map[*html.Node]*Node),
		shadowDOM:  true,
		observable: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SupportsShadowDOM reports whether elements can attach shadow roots.
func (d *Document) SupportsShadowDOM() bool { return d.shadowDOM }

// SupportsMutationObserver reports whether NewMutationObserver succeeds.
func (d *Document) SupportsMutationObserver() bool { return d.observable }

// Root returns the document node.
func (d *Document) Root() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(d.root)
}

// Body returns the body element, or the document node if there is none.
func (d *Document) Body() *Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	if body := findElement(d.root, atom.Body); body != nil {
		return d.wrap(body)
	}
	return d.wrap(d.root)
}

// CreateElement creates a detached element with the given tag name.
func (d *Document) CreateElement(tag string) *Node {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(n)
}

// CreateTextNode creates a detached text node.
func (d *Document) CreateTextNode(data string) *Node {
	n := &html.Node{Type: html.TextNode, Data: data}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(n)
}

// QuerySelector returns the first element in document order matching sel,
// or nil if nothing matches. Shadow trees are not searched.
func (d *Document) QuerySelector(sel string) (*Node, error) {
	return d.Root().QuerySelector(sel)
}

// QuerySelectorAll returns every element matching sel in document order.
func (d *Document) QuerySelectorAll(sel string) ([]*Node, error) {
	return d.Root().QuerySelectorAll(sel)
}

// wrap returns the Node handle for n, creating it on first use.
// d.mu must be held.
func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	if w := d.lookup(n); w != nil {
		return w
	}
	w := &Node{doc: d, n: n, typ: nodeTypeOf(n)}
	d.nodes[n] = weak.Make(w)
	runtime.AddCleanup(w, d.forget, n)
	return w
}

// lookup returns the live handle for n, or nil. d.mu must be held.
func (d *Document) lookup(n *html.Node) *Node {
	if wp, ok := d.nodes[n]; ok {
		return wp.Value()
	}
	return nil
}

// forget drops the entry of a collected handle unless n was wrapped again.
func (d *Document) forget(n *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if wp, ok := d.nodes[n]; ok && wp.Value() == nil {
		delete(d.nodes, n)
	}
}

// connected reports whether h is reachable from the document node, crossing
// shadow boundaries through their hosts. d.mu must be held.
func (d *Document) connected(h *html.Node) bool {
	for h != nil {
		for h.Parent != nil {
			h = h.Parent
		}
		if h == d.root {
			return true
		}
		sr := d.lookup(h)
		if sr == nil || sr.host == nil {
			return false
		}
		h = sr.host.n
	}
	return false
}

// repin pins the shadow hosts in the subtree of h, shadow trees included,
// if h is connected and unpins them otherwise. d.mu must be held.
func (d *Document) repin(h *html.Node) {
	d.setPinned(h, d.connected(h))
}

func (d *Document) setPinned(h *html.Node, pin bool) {
	if w := d.lookup(h); w != nil && w.shadow != nil {
		if pin {
			d.pinned[h] = w
		} else {
			delete(d.pinned, h)
		}
		d.setPinned(w.shadow.n, pin)
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		d.setPinned(c, pin)
	}
}

// handles returns the number of tracked node handles.
func (d *Document) handles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// notify hands rec to every interested observer. d.mu must be held.
func (d *Document) notify(rec MutationRecord) {
	for _, mo := range d.observers {
		mo.consider(rec)
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func compileSelector(sel string) (*css.Selector, error) {
	s, err := css.Parse(sel)
	if err != nil {
		return nil, fmt.Errorf("dom: invalid selector %q: %w", sel, err)
	}
	return s, nil
}

func nodeTypeOf(n *html.Node) NodeType {
	switch n.Type {
	case html.ElementNode:
		return ElementNode
	case html.TextNode:
		return TextNode
	case html.DocumentNode:
		return DocumentNode
	default:
		return OtherNode
	}
}
