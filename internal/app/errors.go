package service

import "errors"

// Sentinel error kinds for the service layer.
var (
	ErrGameNotFound = errors.New("game not found")
	ErrNotStarted   = errors.New("service not started")
)
