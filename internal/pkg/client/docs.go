// Package client implements the client side of the netdemo protocol.
//
// Once connected, the client performs one exchange per tick:
//  1. Serialize the local state and send it as one snapshot.
//  2. Block until exactly one snapshot arrives and treat it as the remote
//     participant's latest state.
//
// The exchange only completes if the server relays something every tick. A
// client whose partner has not connected yet will block until the IO timeout
// unless the server answers lone peers with a placeholder. That timeout is an
// exchange failure like any other, so a lone client goes offline once it
// expires. With no IO timeout it stalls until a partner connects.
//
// If the initial connection fails, or any later exchange fails, the client
// switches to offline mode for the rest of its life: Sync stops touching the
// network and reports that no remote state was received. There is no retry
// and no reconnection; a new Client must be created for that.
package client
