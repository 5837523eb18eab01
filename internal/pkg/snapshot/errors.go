package snapshot

import "github.com/pkg/errors"

// ErrShortBuffer is returned when a buffer cannot hold one encoded Snapshot.
var ErrShortBuffer = errors.New("buffer shorter than snapshot size")
