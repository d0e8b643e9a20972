// Package dom is a small in-process document model for hosting overlays.
//
// A Document wraps a golang.org/x/net/html tree and adds the pieces an
// overlay engine needs from a browser runtime:
//
//   - CSS selector lookup (github.com/ericchiang/css)
//   - attribute and child-list mutation through Node methods
//   - open shadow roots that isolate a host's subtree from selector lookup
//   - MutationObserver, which batches records and delivers them on its own
//     goroutine after the mutation has committed
//
// All Node methods are safe for concurrent use; the Document serializes
// mutations with a single mutex.
//
// # Quick Start
//
//	doc := dom.New()
//	div := doc.CreateElement("div")
//	div.SetAttribute("id", "app")
//	_ = doc.Body().AppendChild(div)
//
//	node, _ := doc.QuerySelector("#app")
//
// Features that a runtime may lack can be switched off with WithoutShadowDOM
// and WithoutMutationObserver, which lets callers exercise their fallbacks.
package dom
