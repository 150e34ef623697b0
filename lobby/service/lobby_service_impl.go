package service

import (
	"context"
	"fmt"

	"github.com/lobbykit/lobbyd/lobby/registry"
	"github.com/lobbykit/lobbyd/lobby/room"
)

// lobbyServiceImpl implements the LobbyService interface.
type lobbyServiceImpl struct {
	registry *registry.Registry
}

// NewLobbyService creates a new lobby service instance.
func NewLobbyService(reg *registry.Registry) LobbyService {
	return &lobbyServiceImpl{registry: reg}
}

// CreateRoom creates a new empty room and returns its snapshot.
func (s *lobbyServiceImpl) CreateRoom(ctx context.Context) (*RoomInfo, error) {
	rm, err := s.registry.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return snapshot(rm), nil
}

// GetRoom returns a snapshot of the room with the given code.
func (s *lobbyServiceImpl) GetRoom(ctx context.Context, code string) (*RoomInfo, error) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}
	return snapshot(rm), nil
}

// ListRooms returns snapshots of all active rooms.
func (s *lobbyServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms := s.registry.List()

	result := make([]*RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		result = append(result, snapshot(rm))
	}
	return result, nil
}

// DeleteRoom destroys a room, disconnecting any remaining members.
func (s *lobbyServiceImpl) DeleteRoom(ctx context.Context, code string) error {
	return s.registry.Delete(code)
}

// GetPlayers returns the current member list of a room.
func (s *lobbyServiceImpl) GetPlayers(ctx context.Context, code string) ([]room.Player, error) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}

	players := rm.Players()
	if players == nil {
		players = []room.Player{}
	}
	return players, nil
}

// GetMessages returns paginated chat history for a room.
func (s *lobbyServiceImpl) GetMessages(ctx context.Context, code string, opts HistoryOptions) (*HistoryResponse, error) {
	rm, err := s.registry.Get(code)
	if err != nil {
		return nil, err
	}

	history := rm.Messages()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 200 {
		opts.Limit = 200
	}
	if opts.Order == "" {
		opts.Order = "asc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var messages []room.ChatMessage
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			messages = append(messages, history[i])
		}
	} else {
		// Chronological order
		if start < total {
			messages = history[start:end]
		}
	}

	if messages == nil {
		messages = []room.ChatMessage{}
	}

	return &HistoryResponse{
		Messages:      messages,
		TotalMessages: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// snapshot captures a room's counters without holding its lock across
// the whole read; counts may be minutely stale relative to each other,
// which is fine for a listing.
func snapshot(rm *room.Room) *RoomInfo {
	return &RoomInfo{
		Code:         rm.Code(),
		PlayerCount:  rm.PlayerCount(),
		MessageCount: rm.MessageCount(),
		CreatedAt:    rm.CreatedAt(),
	}
}
