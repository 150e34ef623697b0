package room

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrAlreadyJoined = errors.New("player already joined")
	ErrNotAMember    = errors.New("player is not a member of this room")
	ErrRoomClosed    = errors.New("room is closed")
)

// Sink is a one-way delivery channel for events to a single connected
// player.
//
// Deliver must not block: implementations buffer internally and return an
// error when the buffer is full or the peer is gone, at which point the
// room drops the member. The room calls Close exactly once for every sink
// it has accepted and never calls Deliver after Close.
type Sink interface {
	Deliver(Event) error
	Close()
}

// Room is the broadcast hub for one lobby. All mutation goes through
// Admit, Remove, and Post, which are serialized under a single mutex
// together with the broadcast each one triggers. Two rooms never contend.
type Room struct {
	code      string
	createdAt time.Time

	mu         sync.Mutex
	players    map[string]Player
	sinks      map[string]Sink
	history    []ChatMessage
	emptySince time.Time
	closed     bool
}

// New creates an empty room under the given code.
func New(code string) *Room {
	now := time.Now()
	return &Room{
		code:       code,
		createdAt:  now,
		players:    make(map[string]Player),
		sinks:      make(map[string]Sink),
		emptySince: now,
	}
}

// Code returns the room's immutable code.
func (r *Room) Code() string { return r.code }

// CreatedAt returns when the room was created.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Admit registers the player, attaches its sink, and broadcasts
// user_joins to every current member including the new one, so a player
// always sees its own join. Returns ErrAlreadyJoined if the player id
// already has a live sink; the caller should reject the new connection
// rather than displace the old one.
func (r *Room) Admit(player Player, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	if _, live := r.sinks[player.ID]; live {
		return ErrAlreadyJoined
	}

	r.players[player.ID] = player
	r.sinks[player.ID] = sink
	r.emptySince = time.Time{}
	r.broadcastLocked(PlayerJoined(player))
	return nil
}

// Remove unregisters the member and its sink and broadcasts user_leaves
// to the remaining members. A no-op if the player id is not a member, so
// disconnect-after-already-removed is always safe and can never produce
// a duplicate leave event.
func (r *Room) Remove(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(playerID)
}

func (r *Room) removeLocked(playerID string) {
	player, ok := r.players[playerID]
	if !ok {
		return
	}

	delete(r.players, playerID)
	if sink, live := r.sinks[playerID]; live {
		delete(r.sinks, playerID)
		sink.Close()
	}
	if len(r.players) == 0 {
		r.emptySince = time.Now()
	}
	r.broadcastLocked(PlayerLeft(player))
}

// Post appends a chat message authored by the given member and
// broadcasts new_message to everyone. Returns ErrNotAMember if the
// author is not currently admitted; the history is not touched in that
// case.
func (r *Room) Post(authorID, text string) (ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ChatMessage{}, ErrRoomClosed
	}
	author, ok := r.players[authorID]
	if !ok {
		return ChatMessage{}, ErrNotAMember
	}

	msg := newChatMessage(author, text)
	r.history = append(r.history, msg)
	r.broadcastLocked(MessagePosted(msg))
	return msg, nil
}

// broadcastLocked delivers ev to every live sink. A sink that refuses
// delivery is treated as disconnected: it is dropped and user_leaves is
// broadcast for it to the survivors, which may in turn drop further
// sinks. The loop runs until membership is stable, all inside the same
// critical section, so the room's total operation order is preserved.
// Caller holds r.mu.
func (r *Room) broadcastLocked(ev Event) {
	var dropped []string
	for id, sink := range r.sinks {
		if err := sink.Deliver(ev); err != nil {
			dropped = append(dropped, id)
		}
	}

	for len(dropped) > 0 {
		id := dropped[0]
		dropped = dropped[1:]

		player, ok := r.players[id]
		if !ok {
			continue
		}
		delete(r.players, id)
		if sink, live := r.sinks[id]; live {
			delete(r.sinks, id)
			sink.Close()
		}
		if len(r.players) == 0 {
			r.emptySince = time.Now()
		}

		leave := PlayerLeft(player)
		for survivorID, sink := range r.sinks {
			if err := sink.Deliver(leave); err != nil {
				dropped = append(dropped, survivorID)
			}
		}
	}
}

// Players returns a snapshot of the current member list.
func (r *Room) Players() []Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	return players
}

// Messages returns a copy of the chat history in append order.
func (r *Room) Messages() []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := make([]ChatMessage, len(r.history))
	copy(history, r.history)
	return history
}

// PlayerCount returns the number of current members.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// MessageCount returns the number of messages in the history.
func (r *Room) MessageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

// IdleSince reports when the room last became empty. ok is false while
// the room has members.
func (r *Room) IdleSince() (since time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.players) > 0 {
		return time.Time{}, false
	}
	return r.emptySince, true
}

// Close drops every member, releases their sinks, and marks the room
// closed. Subsequent Admit and Post calls fail with ErrRoomClosed. No
// leave events are broadcast since nobody is left to receive them.
// Safe to call more than once.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for id, sink := range r.sinks {
		delete(r.sinks, id)
		sink.Close()
	}
	r.players = make(map[string]Player)
	r.emptySince = time.Now()
}
