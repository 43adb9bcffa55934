package core

import "errors"

var (
	// ErrWrongType is returned when a command targets a key that already
	// holds a value of a different kind. Callers map it to the wire
	// WRONGTYPE error; no state changes when it is returned.
	ErrWrongType = errors.New("Operation against a key holding the wrong kind of value")

	// ErrIndexOutOfRange is returned by LSET when index does not resolve to
	// an existing list element.
	ErrIndexOutOfRange = errors.New("index out of range")
)
