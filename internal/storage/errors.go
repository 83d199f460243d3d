package storage

import "errors"

// ErrNotFound is returned when a requested center does not exist.
var ErrNotFound = errors.New("not found")
