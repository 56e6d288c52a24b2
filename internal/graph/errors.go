package graph

import "errors"

var (
	// ErrInvalidIDType is returned when an id or parent value is neither an
	// integer nor a string and id-type validation is enabled.
	ErrInvalidIDType = errors.New("arbor: invalid id type")

	// ErrDuplicateIDs is returned from New when records share an id and
	// duplicates are not tolerated.
	ErrDuplicateIDs = errors.New("arbor: duplicate ids")

	// ErrReservedRoot is returned from New when a record uses the root
	// sentinel as its own id and that is not tolerated.
	ErrReservedRoot = errors.New("arbor: reserved root id used")
)
