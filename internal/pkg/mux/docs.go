// Package mux watches a listening socket and a bounded set of peer
// connections for readiness without running the caller on more than one
// goroutine.
//
// Every registered handle gets a watcher goroutine that performs exactly one
// blocking operation at a time (accept for a listener, a read of one frame
// for a connection) and parks the result. The owner calls Wait to block until
// at least one handle has a parked result, checks handles with IsReady and
// consumes results with Take, which re-arms the watcher. Watchers never touch
// the owner's state; results cross over a channel, so the owner needs no locks.
//
// A frame read completes when one full frame has arrived, when the peer
// closes, or when the rest of a started frame fails to arrive within the frame
// timeout. The caller classifies the result by its length.
//
// Mux itself is not safe for concurrent use: Register, Deregister, Wait,
// IsReady and Take must all be called from the owning goroutine.
package mux
