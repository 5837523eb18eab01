package client

import "github.com/pkg/errors"

// ErrNotConnected indicates that Sync was called before Connect.
var ErrNotConnected = errors.New("not connected")

// ErrOffline indicates that the client has given up on the server for this run.
var ErrOffline = errors.New("client offline")
