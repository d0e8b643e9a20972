package pattern

import (
	"errors"
	"fmt"
)

// Sentinel errors for pattern package.
var (
	// ErrNoDrawableContent is returned when neither an image nor any text is set.
	ErrNoDrawableContent = errors.New("pattern: no image or text to draw")

	// ErrNoContext is returned when a drawing surface of the requested size
	// cannot be created.
	ErrNoContext = errors.New("pattern: cannot create drawing surface")

	// ErrImageLoad is the error ImageLoadError unwraps to.
	ErrImageLoad = errors.New("pattern: image load failed")

	// ErrInvalidColor is returned by ParseColor for unrecognized input.
	ErrInvalidColor = errors.New("pattern: invalid color")
)

// ImageLoadError reports a failed image load, including timeouts.
type ImageLoadError struct {
	Src string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("pattern: load image %s: %v", truncate(e.Src, 64), e.Err)
}

// Unwrap returns both ErrImageLoad and the cause, so errors.Is matches
// either ErrImageLoad or, for example, context.DeadlineExceeded.
func (e *ImageLoadError) Unwrap() []error {
	return []error{ErrImageLoad, e.Err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
