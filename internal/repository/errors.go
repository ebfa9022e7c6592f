package repository

import "errors"

var (
	// ErrNotFound is returned when a query matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrOutOfRange is returned when a value does not fit its column.
	ErrOutOfRange = errors.New("value out of range")
)
