package overlay

import (
	"errors"
	"fmt"

	"github.com/gogpu/watermark/dom"
)

// ErrContainerNotFound is returned when a container selector matches nothing.
var ErrContainerNotFound = errors.New("overlay: container not found")

// ResolveContainer picks the element a watermark is mounted into. An
// explicit node wins; otherwise selector is looked up in doc at call time.
// With neither, the document body is used.
func ResolveContainer(doc *dom.Document, node *dom.Node, selector string) (*dom.Node, error) {
	if node != nil {
		return node, nil
	}
	if selector == "" {
		return doc.Body(), nil
	}
	n, err := doc.QuerySelector(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrContainerNotFound, selector, err)
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrContainerNotFound, selector)
	}
	return n, nil
}
