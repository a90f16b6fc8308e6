package cache

import "errors"

// ErrInProgress is returned when a computation for the same fingerprint is already running.
var ErrInProgress = errors.New("computation already in progress")
