package dom

import "errors"

// Sentinel errors for dom package.
var (
	// ErrHierarchy is returned when an insertion would produce an invalid tree.
	ErrHierarchy = errors.New("dom: hierarchy request error")

	// ErrNotFound is returned when a node is not a child of the given parent.
	ErrNotFound = errors.New("dom: node not found")

	// ErrNotSupported is returned when the document was created without the
	// requested feature.
	ErrNotSupported = errors.New("dom: feature not supported")

	// ErrShadowAttached is returned by AttachShadow on an element that
	// already has a shadow root.
	ErrShadowAttached = errors.New("dom: shadow root already attached")

	// ErrWrongDocument is returned when nodes from different documents are mixed.
	ErrWrongDocument = errors.New("dom: node belongs to another document")

	// ErrInvalidOptions is returned by Observe when no mutation type is requested.
	ErrInvalidOptions = errors.New("dom: observe options select no mutation type")
)
