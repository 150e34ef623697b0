package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Player is the identity attached to one connection. Immutable once
// created; equality is by ID.
type Player struct {
	ID   string `json:"player_id"`
	Name string `json:"player_name"`
}

// ChatMessage is one entry in a room's history. Messages are totally
// ordered within a room by append order.
type ChatMessage struct {
	ID         string    `json:"message_id"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

func newChatMessage(author Player, text string) ChatMessage {
	return ChatMessage{
		ID:         uuid.NewString(),
		PlayerID:   author.ID,
		PlayerName: author.Name,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}
}

// EventType tags the wire envelope. The set is closed: anything else is
// a protocol error, not an extension point.
type EventType string

const (
	EventUserJoins  EventType = "user_joins"
	EventUserLeaves EventType = "user_leaves"
	EventNewMessage EventType = "new_message"
)

// Event is one broadcastable fact, a tagged union over the three event
// types. Exactly one payload field is set, matching Type. Events carry
// no room code; the connection they travel on already scopes them.
type Event struct {
	Type    EventType
	Player  *Player      // user_joins, user_leaves
	Message *ChatMessage // new_message
}

// PlayerJoined builds a user_joins event.
func PlayerJoined(p Player) Event {
	return Event{Type: EventUserJoins, Player: &p}
}

// PlayerLeft builds a user_leaves event.
func PlayerLeft(p Player) Event {
	return Event{Type: EventUserLeaves, Player: &p}
}

// MessagePosted builds a new_message event.
func MessagePosted(m ChatMessage) Event {
	return Event{Type: EventNewMessage, Message: &m}
}

// envelope is the wire shape shared by inbound and outbound messages:
// {"event_type": ..., "payload": ...}.
type envelope struct {
	EventType EventType       `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the event in the wire envelope format.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch e.Type {
	case EventUserJoins, EventUserLeaves:
		payload = e.Player
	case EventNewMessage:
		payload = e.Message
	default:
		return nil, fmt.Errorf("cannot encode event type %q", e.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{EventType: e.Type, Payload: raw})
}

// ErrUnknownEventType reports an inbound message whose event_type is
// outside the protocol.
var ErrUnknownEventType = errors.New("unknown event type")

// Inbound is a decoded client-to-server message. The only inbound shape
// the protocol defines is a chat post.
type Inbound struct {
	Text string
}

// ParseInbound decodes a raw client frame. Malformed JSON and unknown
// event types are well-defined errors; callers drop the frame and keep
// the connection alive.
func ParseInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, fmt.Errorf("malformed message: %w", err)
	}

	if env.EventType != EventNewMessage {
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownEventType, env.EventType)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return Inbound{}, fmt.Errorf("malformed payload: %w", err)
	}

	return Inbound{Text: payload.Text}, nil
}
