package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/lobbykit/lobbyd/lobby/room"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrCodeSpace    = errors.New("could not allocate a unique room code")
)

// maxCreateAttempts bounds the collision-retry loop in Create. With a
// 16^6 code space this is only reachable when the registry is nearly
// full.
const maxCreateAttempts = 100

// Registry is the process-wide table mapping room code to room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	// newCode is swappable for tests.
	newCode func() string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		rooms:   make(map[string]*room.Room),
		newCode: room.NewCode,
	}
}

// Create allocates a fresh code, retrying on collision against existing
// entries, inserts an empty room under it, and returns the room. The
// room exists in the table before Create returns.
func (r *Registry) Create() (*room.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		code := r.newCode()
		if _, taken := r.rooms[code]; taken {
			continue
		}

		rm := room.New(code)
		r.rooms[code] = rm
		return rm, nil
	}

	return nil, ErrCodeSpace
}

// Get looks up a room by code. Pure lookup: it never creates a room as
// a side effect.
func (r *Registry) Get(code string) (*room.Room, error) {
	r.mu.RLock()
	rm, exists := r.rooms[code]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// Delete removes a room from the table and closes it, disconnecting any
// remaining members.
func (r *Registry) Delete(code string) error {
	r.mu.Lock()
	rm, exists := r.rooms[code]
	if exists {
		delete(r.rooms, code)
	}
	r.mu.Unlock()

	if !exists {
		return ErrRoomNotFound
	}

	rm.Close()
	return nil
}

// List returns all rooms currently in the table.
func (r *Registry) List() []*room.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*room.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		result = append(result, rm)
	}
	return result
}

// Count returns the number of rooms in the table.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// CleanupIdle removes rooms that have been empty for longer than
// maxIdle and returns how many were removed. Rooms with members are
// never touched.
func (r *Registry) CleanupIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0

	for code, rm := range r.rooms {
		since, empty := rm.IdleSince()
		if empty && since.Before(cutoff) {
			delete(r.rooms, code)
			rm.Close()
			removed++
		}
	}

	return removed
}
