package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrRosterTooLarge = errors.New("roster exceeds the maximum size")
	ErrInvalidLock    = errors.New("lock side must be A or B")
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("notification queue is full, retry later")
)
