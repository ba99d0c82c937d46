package errors

import "errors"

var (
	ErrNotFound = errors.New("time slot not found")

	ErrCapacityExceeded = errors.New("slot capacity exceeded")
)
