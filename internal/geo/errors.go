package geo

import "errors"

var (
	// ErrHeapFull is returned when more items are added than the heap was sized for.
	// It means the grid's node count was computed incorrectly.
	ErrHeapFull = errors.New("geo: heap capacity exceeded")

	// ErrInvalidSettings is returned by NewGrid for malformed dimensions.
	ErrInvalidSettings = errors.New("geo: invalid grid settings")

	// ErrSnapshotMismatch is returned by Restore when the snapshot does not fit the grid.
	ErrSnapshotMismatch = errors.New("geo: snapshot does not match grid")
)
