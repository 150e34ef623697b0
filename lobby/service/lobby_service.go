package service

import (
	"context"

	"github.com/lobbykit/lobbyd/lobby/room"
)

// LobbyService defines all room management operations exposed to the
// request/response transports.
type LobbyService interface {
	// Room lifecycle
	CreateRoom(ctx context.Context) (*RoomInfo, error)
	GetRoom(ctx context.Context, code string) (*RoomInfo, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	DeleteRoom(ctx context.Context, code string) error

	// Read-side queries
	GetPlayers(ctx context.Context, code string) ([]room.Player, error)
	GetMessages(ctx context.Context, code string, opts HistoryOptions) (*HistoryResponse, error)
}
