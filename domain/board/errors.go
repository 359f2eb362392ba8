package board

import "errors"

// Error taxonomy for room-scoped operations. These are reported to the
// originating connection only and never terminate it.
var (
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrHostUnavailable = errors.New("host unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
)
