// Package overlay mounts a watermark tile into a document.
//
// A Host owns two nodes: the host element, appended directly to the
// container and marked with the owner's identity tag, and the content
// element, which carries the tile as a CSS background. When the document
// supports shadow DOM the content lives in the host's shadow root; otherwise
// it is appended to the host itself.
//
// The inline style of the content element is kept in a Style, an ordered
// property list that serializes as "prop:value;" pairs without spaces.
package overlay
