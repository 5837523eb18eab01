package mux

import "errors"

// ErrCapacityExceeded is returned when registering more handles than the Mux
// was built for. Callers that size the Mux from their slot table never see it.
var ErrCapacityExceeded = errors.New("mux capacity exceeded")

// ErrAlreadyRegistered is returned when registering a handle twice.
var ErrAlreadyRegistered = errors.New("handle already registered")

// ErrNotRegistered is returned when deregistering an unknown handle.
var ErrNotRegistered = errors.New("handle not registered")

// ErrNotReady is returned by Take when the handle has no parked result.
var ErrNotReady = errors.New("handle not ready")

// ErrClosed is returned after the Mux has been closed.
var ErrClosed = errors.New("mux closed")
