package service

import (
	"time"

	"github.com/lobbykit/lobbyd/lobby/room"
)

// RoomInfo is a point-in-time snapshot of one room.
type RoomInfo struct {
	Code         string        `json:"game_id"`
	PlayerCount  int           `json:"player_count"`
	MessageCount int           `json:"message_count"`
	CreatedAt    time.Time     `json:"created_at"`
	Players      []room.Player `json:"players,omitempty"`
}

// HistoryOptions configures chat history retrieval.
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated chat history.
type HistoryResponse struct {
	Messages      []room.ChatMessage `json:"messages"`
	TotalMessages int                `json:"total_messages"`
	Page          int                `json:"page"`
	PageSize      int                `json:"page_size"`
	TotalPages    int                `json:"total_pages"`
	HasNext       bool               `json:"has_next"`
	HasPrevious   bool               `json:"has_previous"`
}
