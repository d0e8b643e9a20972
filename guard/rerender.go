package guard

import "github.com/gogpu/watermark/dom"

// WatchedAttributes returns the attribute filter used for a watermark
// marked with attr.
func WatchedAttributes(attr string) []string {
	return []string{"style", "class", attr}
}

// ShouldRerender reports whether rec undoes or alters the watermark marked
// with attr=tag. It qualifies when the identity attribute itself changed,
// when any watched attribute of a tagged node changed, or when a tagged node
// was removed. Other mutations, including churn on untagged siblings, are
// ignored.
func ShouldRerender(attr, tag string, rec dom.MutationRecord) bool {
	if rec.Type == dom.Attributes {
		if rec.AttributeName == attr {
			return true
		}
		if hasTag(rec.Target, attr, tag) {
			return true
		}
	}
	for _, n := range rec.RemovedNodes {
		if hasTag(n, attr, tag) {
			return true
		}
	}
	return false
}

func hasTag(n *dom.Node, attr, tag string) bool {
	if n == nil || n.Type() != dom.ElementNode {
		return false
	}
	v, ok := n.GetAttribute(attr)
	return ok && v == tag
}
