package dom

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Render writes the document as HTML. Shadow roots are serialized as
// declarative <template shadowrootmode="open"> children of their hosts.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	clone := d.cloneForRender(d.root)
	d.mu.Unlock()
	return html.Render(w, clone)
}

// RenderNode writes the outer HTML of n.
func (d *Document) RenderNode(w io.Writer, n *Node) error {
	if n.doc != d {
		return ErrWrongDocument
	}
	d.mu.Lock()
	clone := d.cloneForRender(n.n)
	d.mu.Unlock()
	if clone.Type == html.DocumentNode {
		for c := clone.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(w, clone)
}

// cloneForRender deep-copies n with shadow trees inlined. d.mu must be held.
func (d *Document) cloneForRender(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if w := d.lookup(n); w != nil && w.shadow != nil {
		tpl := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Template,
			Data:     "template",
			Attr:     []html.Attribute{{Key: "shadowrootmode", Val: "open"}},
		}
		for ch := w.shadow.n.FirstChild; ch != nil; ch = ch.NextSibling {
			tpl.AppendChild(d.cloneForRender(ch))
		}
		c.AppendChild(tpl)
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(d.cloneForRender(ch))
	}
	return c
}
