package storage

import "errors"

// Closed error taxonomy for the storage engine. Callers type-switch or
// use errors.Is against these sentinels; the engine never wraps an
// unrelated error in one of these without fmt.Errorf("%w", ...).
var (
	// ErrCorruptHeader is returned when the file header, a page header
	// or an encoded cell fails a structural check (bad magic, wrong
	// length, mismatched fixed bytes, malformed or truncated cell). The
	// page size stored in the file header is not checked.
	ErrCorruptHeader = errors.New("storage: corrupt header")

	// ErrBadPageNo is returned for a page number outside [1, pageCount]
	// or a double-release of a page reference.
	ErrBadPageNo = errors.New("storage: bad page number")

	// ErrBadCellNo is returned for a cell index outside [0, numCells).
	ErrBadCellNo = errors.New("storage: bad cell number")

	// ErrNotFound is returned by Find when no cell with the given key
	// exists in the table.
	ErrNotFound = errors.New("storage: key not found")

	// ErrDuplicate is returned by Insert when a cell with the given key
	// already exists in the table.
	ErrDuplicate = errors.New("storage: duplicate key")

	// ErrNoMem is returned when a cell's encoded size (plus its 2-byte
	// pointer slot) does not fit in the free space left in the node it
	// is being inserted into.
	ErrNoMem = errors.New("storage: cell too large for page")

	// ErrIO wraps unexpected underlying I/O failures.
	ErrIO = errors.New("storage: io failure")

	// ErrCantMove is returned by cursor movement when no further cell
	// exists in the requested direction. Callers treat it as an
	// expected end-of-range signal, not a failure.
	ErrCantMove = errors.New("storage: cursor cannot move")
)
