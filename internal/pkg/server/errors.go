package server

import "github.com/pkg/errors"

// ErrNotListening is returned when the server is used before Listen.
var ErrNotListening = errors.New("server not listening")

// ErrListenerClosed is returned by Run when the listener was closed underneath it.
var ErrListenerClosed = errors.New("listener closed")
