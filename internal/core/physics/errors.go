package physics

import "errors"

var (
	// ErrStaleHandle means a handle no longer resolves to a live body or collider.
	ErrStaleHandle  = errors.New("stale physics handle")
	ErrInvalidShape = errors.New("invalid collider shape")
	ErrNotKinematic = errors.New("body is not kinematic")
)
