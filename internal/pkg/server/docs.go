// Package server implements the relay side of the netdemo protocol.
//
// The server performs the following steps on every wake of its multiplexer:
//  1. If the listening socket is ready, it accepts the pending connection into
//     the lowest free slot. When every slot is taken the connection is closed.
//  2. For each occupied slot in index order whose connection is ready, it
//     consumes one read result:
//     - zero bytes: the peer closed; the slot is released.
//     - a full snapshot: the raw bytes are written, unmodified, to every other
//     occupied slot before the next slot is looked at.
//     - anything in between: a protocol error; the slot is released.
//
// A peer that is alone receives nothing when it sends, which stalls a client
// that blocks for its partner's state every tick. WithPlaceholder makes the
// server answer a lone peer with a fixed placeholder snapshot instead.
//
// All state is owned by the goroutine calling Run. Cancelling its context is
// checked once per wake; on exit every connection and the listener are closed.
package server
