package store

import "errors"

// ErrInvalidResource is returned by For when the resource name is not a valid
// Kubernetes object name.
var ErrInvalidResource = errors.New("invalid resource name")
