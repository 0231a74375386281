package synctex

import "errors"

// ErrNoMapping reports a query whose position has no counterpart in the
// other document. Engine methods return a nil position instead; callers
// that must turn that outcome into an error use this value.
var ErrNoMapping = errors.New("no synctex mapping for position")
