package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrResourceInactive = errors.New("resource is not active")
	ErrDoubleBooking    = errors.New("double booking")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
)
