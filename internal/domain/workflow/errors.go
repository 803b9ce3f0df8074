package workflow

import "errors"

var (
	// ErrNotPermitted is returned when the rule table has no row for the
	// requested (entity, from, role, to) combination
	ErrNotPermitted = errors.New("transition not permitted")

	// ErrInvalidStatus is returned when a status does not belong to the
	// entity type
	ErrInvalidStatus = errors.New("invalid status")

	// ErrOverReceive is returned when a stock receive would exceed the
	// expected quantity
	ErrOverReceive = errors.New("received quantity exceeds expected quantity")

	// ErrInvalidQuantity is returned when a receive delta is zero or negative
	ErrInvalidQuantity = errors.New("invalid receive quantity")
)
