// Package room implements the per-room broadcast hub for the lobby server.
//
// The room package implements:
//   - Room membership (players and their delivery sinks)
//   - Ordered broadcast of join/leave/chat events
//   - Append-only chat history
//   - Room code generation
//
// Core Types:
//
// Room is the hub that owns one room's mutable state. Every membership
// change and chat post funnels through it so that all participants observe
// the same event order. Sink is the one-way delivery channel a transport
// attaches for a connected player. Event is the closed set of broadcastable
// facts (user_joins, user_leaves, new_message).
//
// Ordering:
//
// A room serializes Admit, Remove, and Post under a single mutex; the
// broadcast triggered by an operation happens inside the same critical
// section. Each sink therefore receives, from the moment of its admission,
// a suffix of the room's operation order with no reordering or duplication.
// Delivery order across different sinks within one broadcast is
// unspecified.
//
// Backpressure:
//
// Deliver on a Sink must not block. Transports back sinks with a buffered
// channel and report failure when it is full; the room treats a failed
// delivery as a disconnect, drops the member, and broadcasts user_leaves to
// the rest. A slow consumer can never stall the room's event stream.
//
// Usage:
//
//	rm := room.New(room.NewCode())
//
//	if err := rm.Admit(player, sink); err != nil {
//		// second connection for the same player id
//	}
//
//	msg, err := rm.Post(player.ID, "hello")
//	rm.Remove(player.ID)
package room
