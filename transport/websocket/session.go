package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lobbykit/lobbyd/lobby/registry"
	"github.com/lobbykit/lobbyd/lobby/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound event buffer per connection. A client that falls this
	// far behind the room's event stream is treated as disconnected.
	sendBuffer = 256
)

// Application close codes, part of the wire protocol.
const (
	CloseGameNotFound  = 4000
	CloseAlreadyJoined = 4001
)

var errSendBufferFull = errors.New("send buffer full")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Handler upgrades lobby connections and runs one Session per socket.
type Handler struct {
	registry *registry.Registry
}

// NewHandler creates a WebSocket handler backed by the given registry.
func NewHandler(reg *registry.Registry) *Handler {
	return &Handler{registry: reg}
}

// ServeWS handles a WebSocket request for the given room code. The
// player identity comes from the player_id and player_name query
// parameters. An unknown code closes the socket with code 4000 before
// any event is sent; a duplicate player id closes it with 4001.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, code string) {
	playerID := r.URL.Query().Get("player_id")
	playerName := r.URL.Query().Get("player_name")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	if playerName == "" {
		playerName = playerID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	rm, err := h.registry.Get(code)
	if err != nil {
		closeWith(conn, CloseGameNotFound, "game not found")
		return
	}

	s := &Session{
		room:   rm,
		conn:   conn,
		player: room.Player{ID: playerID, Name: playerName},
		send:   make(chan room.Event, sendBuffer),
	}

	if err := rm.Admit(s.player, s); err != nil {
		closeWith(conn, CloseAlreadyJoined, "player already connected")
		return
	}

	go s.writePump()
	go s.readPump()
}

// Session bridges one WebSocket connection to one room membership. It
// is also the room's Sink for that player: the room hands it events via
// Deliver and the write pump drains them onto the wire.
type Session struct {
	room   *room.Room
	conn   *websocket.Conn
	player room.Player

	send      chan room.Event
	closeOnce sync.Once
}

// Deliver queues ev for the write pump without blocking. A full queue
// means the peer is not keeping up; the error tells the room to drop
// this member.
func (s *Session) Deliver(ev room.Event) error {
	select {
	case s.send <- ev:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close releases the session's send channel. Called by the room exactly
// once when the member is dropped; the sync.Once guards against a
// transport teardown racing a room-side drop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// readPump pumps inbound frames from the connection to the room. It
// owns teardown: whatever ends the read loop, the player is removed
// from the room exactly once.
func (s *Session) readPump() {
	defer func() {
		s.room.Remove(s.player.ID)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for player %s: %v", s.player.ID, err)
			}
			break
		}

		inbound, err := room.ParseInbound(data)
		if err != nil {
			// Malformed or unknown frames are dropped; the session
			// stays up and nobody else in the room is affected.
			log.Printf("Dropping inbound frame from player %s: %v", s.player.ID, err)
			continue
		}

		if _, err := s.room.Post(s.player.ID, inbound.Text); err != nil {
			log.Printf("Rejected post from player %s: %v", s.player.ID, err)
		}
	}
}

// writePump pumps room events from the send channel to the connection,
// one JSON frame per event, and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The room dropped us
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("Failed to marshal event for player %s: %v", s.player.ID, err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeWith sends an application close frame and tears the connection
// down.
func closeWith(conn *websocket.Conn, code int, reason string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	conn.Close()
}
