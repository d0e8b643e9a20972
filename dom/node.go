package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// NodeType identifies the kind of a Node.
type NodeType int

// Node types.
const (
	ElementNode NodeType = iota + 1
	TextNode
	DocumentNode
	ShadowRootNode
	OtherNode
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case DocumentNode:
		return "document"
	case ShadowRootNode:
		return "shadow-root"
	default:
		return "other"
	}
}

// Node is a handle to a node of a Document. Handles are unique per
// underlying node, so two handles are the same node iff the pointers are equal.
type Node struct {
	doc *Document
	n   *html.Node
	typ NodeType

	host   *Node // set on shadow roots
	shadow *Node // set on shadow hosts
}

// Document returns the document that owns the node.
func (n *Node) Document() *Document { return n.doc }

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// TagName returns the lower-case tag name of an element, or "" for other nodes.
func (n *Node) TagName() string {
	if n.typ != ElementNode {
		return ""
	}
	return n.n.Data
}

// Data returns the text of a text node.
func (n *Node) Data() string {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if n.typ != TextNode {
		return ""
	}
	return n.n.Data
}

// GetAttribute returns the value of the named attribute.
func (n *Node) GetAttribute(name string) (string, bool) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return getAttr(n.n, name)
}

// HasAttribute reports whether the named attribute is present.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.GetAttribute(name)
	return ok
}

// SetAttribute sets the named attribute and queues an attributes record.
// It is a no-op on nodes other than elements.
func (n *Node) SetAttribute(name, value string) {
	if n.typ != ElementNode {
		return
	}
	name = strings.ToLower(name)

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	old, _ := getAttr(n.n, name)
	set := false
	for i := range n.n.Attr {
		if n.n.Attr[i].Namespace == "" && n.n.Attr[i].Key == name {
			n.n.Attr[i].Val = value
			set = true
			break
		}
	}
	if !set {
		n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: value})
	}
	n.doc.notify(MutationRecord{
		Type:          Attributes,
		Target:        n,
		AttributeName: name,
		OldValue:      old,
	})
}

// RemoveAttribute removes the named attribute. Removing an absent attribute
// queues no record.
func (n *Node) RemoveAttribute(name string) {
	name = strings.ToLower(name)

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	for i := range n.n.Attr {
		if n.n.Attr[i].Namespace == "" && n.n.Attr[i].Key == name {
			old := n.n.Attr[i].Val
			n.n.Attr = append(n.n.Attr[:i], n.n.Attr[i+1:]...)
			n.doc.notify(MutationRecord{
				Type:          Attributes,
				Target:        n,
				AttributeName: name,
				OldValue:      old,
			})
			return
		}
	}
}

// Parent returns the parent node, or nil for detached nodes and shadow roots.
func (n *Node) Parent() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.wrap(n.n.Parent)
}

// Children returns a snapshot of the child nodes.
func (n *Node) Children() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var out []*Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, n.doc.wrap(c))
	}
	return out
}

// Subtree returns n and all of its descendants in document order.
// Shadow trees are not entered.
func (n *Node) Subtree() []*Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	var out []*Node
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		out = append(out, n.doc.wrap(h))
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.n)
	return out
}

// Contains reports whether other is n or one of its light-tree descendants.
func (n *Node) Contains(other *Node) bool {
	if other == nil || other.doc != n.doc {
		return false
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return isInclusiveAncestor(n.n, other.n)
}

// IsConnected reports whether n is reachable from the document node,
// crossing shadow boundaries through their hosts.
func (n *Node) IsConnected() bool {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.doc.connected(n.n)
}

// AppendChild appends child to n, first removing it from its current parent.
func (n *Node) AppendChild(child *Node) error {
	if child == nil || child.doc != n.doc {
		return ErrWrongDocument
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	switch {
	case n.typ != ElementNode && n.typ != DocumentNode && n.typ != ShadowRootNode:
		return ErrHierarchy
	case child.typ == DocumentNode || child.typ == ShadowRootNode:
		return ErrHierarchy
	case isInclusiveAncestor(child.n, n.n):
		return ErrHierarchy
	}

	if old := child.n.Parent; old != nil {
		old.RemoveChild(child.n)
		n.doc.notify(MutationRecord{
			Type:         ChildList,
			Target:       n.doc.wrap(old),
			RemovedNodes: []*Node{child},
		})
	}
	n.n.AppendChild(child.n)
	n.doc.repin(child.n)
	n.doc.notify(MutationRecord{
		Type:       ChildList,
		Target:     n,
		AddedNodes: []*Node{child},
	})
	return nil
}

// RemoveChild removes child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.doc != n.doc {
		return ErrWrongDocument
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if child.n.Parent != n.n {
		return ErrNotFound
	}
	n.n.RemoveChild(child.n)
	n.doc.repin(child.n)
	n.doc.notify(MutationRecord{
		Type:         ChildList,
		Target:       n,
		RemovedNodes: []*Node{child},
	})
	return nil
}

// Remove detaches n from its parent. Detached nodes are left alone.
func (n *Node) Remove() {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	parent := n.n.Parent
	if parent == nil {
		return
	}
	parent.RemoveChild(n.n)
	n.doc.repin(n.n)
	n.doc.notify(MutationRecord{
		Type:         ChildList,
		Target:       n.doc.wrap(parent),
		RemovedNodes: []*Node{n},
	})
}

// AttachShadow attaches an open shadow root to the element and returns it.
func (n *Node) AttachShadow() (*Node, error) {
	if !n.doc.shadowDOM {
		return nil, ErrNotSupported
	}
	if n.typ != ElementNode {
		return nil, ErrHierarchy
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	if n.shadow != nil {
		return nil, ErrShadowAttached
	}
	sr := n.doc.wrap(&html.Node{Type: html.DocumentNode})
	sr.typ = ShadowRootNode
	sr.host = n
	n.shadow = sr
	n.doc.repin(n.n)
	return sr, nil
}

// ShadowRoot returns the attached shadow root, if any.
func (n *Node) ShadowRoot() *Node {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	return n.shadow
}

// Host returns the element a shadow root is attached to.
func (n *Node) Host() *Node { return n.host }

// QuerySelector returns the first descendant of n matching sel, or nil.
func (n *Node) QuerySelector(sel string) (*Node, error) {
	all, err := n.QuerySelectorAll(sel)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// QuerySelectorAll returns the descendants of n matching sel.
func (n *Node) QuerySelectorAll(sel string) ([]*Node, error) {
	s, err := compileSelector(sel)
	if err != nil {
		return nil, err
	}
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()

	seen := make(map[*html.Node]bool)
	var out []*Node
	for _, m := range s.Select(n.n) {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, n.doc.wrap(m))
	}
	return out, nil
}

// String returns a short description such as <div id="x">.
func (n *Node) String() string {
	switch n.typ {
	case ElementNode:
		n.doc.mu.Lock()
		defer n.doc.mu.Unlock()
		var b strings.Builder
		b.WriteString("<" + n.n.Data)
		for _, a := range n.n.Attr {
			if a.Key == "style" {
				continue
			}
			b.WriteString(" " + a.Key + "=\"" + a.Val + "\"")
		}
		b.WriteString(">")
		return b.String()
	case TextNode:
		return "#text"
	default:
		return "#" + n.typ.String()
	}
}

func getAttr(n *html.Node, name string) (string, bool) {
	name = strings.ToLower(name)
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// isInclusiveAncestor reports whether a is d or an ancestor of d.
func isInclusiveAncestor(a, d *html.Node) bool {
	for cur := d; cur != nil; cur = cur.Parent {
		if cur == a {
			return true
		}
	}
	return false
}
