package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyConfirmed is returned when a mutation targets a confirmed order
	ErrAlreadyConfirmed = errors.New("order already confirmed")
)
