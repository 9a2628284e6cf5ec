package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrEncode  = errors.New("encode document failed")
	ErrPersist = errors.New("persist document failed")
)
