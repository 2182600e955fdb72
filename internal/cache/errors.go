package cache

import "errors"

var (
	// ErrNoOperation indicates a query read or write with a fragment-only document.
	ErrNoOperation = errors.New("cache: document has no operation")
	// ErrNoFragment indicates a fragment read or write without a single fragment.
	ErrNoFragment = errors.New("cache: document has no usable fragment")
	// ErrUnknownFragment indicates a spread of a fragment the document does not define.
	ErrUnknownFragment = errors.New("cache: unknown fragment")
	// ErrShape indicates data that does not have the shape its selection set requires.
	ErrShape = errors.New("cache: data does not match selection set")
)
