// Package websocket provides the realtime transport for the lobby server.
//
// The websocket package implements:
//   - Connection upgrade and per-connection Session lifecycle
//   - The room Sink backed by a buffered send channel
//   - Inbound chat-post routing to the room
//   - Ping/pong keepalive and write deadlines
//
// Session Lifecycle:
//
// 1. Client connects to /ws/games/{game_id}?player_id=&player_name=
// 2. The room is looked up in the registry; a miss closes the socket
// with application close code 4000 before any event is sent
// 3. The session is admitted to the room; a duplicate player id is
// rejected with close code 4001
// 4. The read pump feeds inbound new_message frames to the room; the
// write pump drains room events onto the wire
// 5. Disconnection, graceful or abrupt, removes the player from the
// room exactly once
//
// Concurrency:
//
// Each connection runs a read pump and a write pump goroutine. The room
// delivers events into the session's buffered channel without blocking;
// if the client cannot drain it in time the room drops the session,
// which the write pump observes as a closed channel.
package websocket
