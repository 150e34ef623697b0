package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/lobbykit/lobbyd/lobby/room"
)

type nopSink struct{}

func (nopSink) Deliver(room.Event) error { return nil }
func (nopSink) Close()                   {}

func TestCreateAndGet(t *testing.T) {
	reg := New()

	rm, err := reg.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rm.Code() == "" {
		t.Fatal("Created room has empty code")
	}
	if len(rm.Code()) != room.CodeLength {
		t.Errorf("Expected code length %d, got %q", room.CodeLength, rm.Code())
	}

	got, err := reg.Get(rm.Code())
	if err != nil {
		t.Fatalf("Get failed for freshly created room: %v", err)
	}
	if got != rm {
		t.Error("Get returned a different room instance")
	}
}

func TestGetNotFound(t *testing.T) {
	reg := New()

	for _, code := range []string{"NOSUCH", ""} {
		if _, err := reg.Get(code); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Get(%q): expected ErrRoomNotFound, got %v", code, err)
		}
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	reg := New()

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	reg.newCode = func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	first, err := reg.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Code() != "AAAAAA" {
		t.Fatalf("Expected first code AAAAAA, got %s", first.Code())
	}

	second, err := reg.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if second.Code() != "BBBBBB" {
		t.Errorf("Expected collision retry to yield BBBBBB, got %s", second.Code())
	}
}

func TestCreateExhaustedCodeSpace(t *testing.T) {
	reg := New()
	reg.newCode = func() string { return "SAMEID" }

	if _, err := reg.Create(); err != nil {
		t.Fatalf("First create should succeed: %v", err)
	}
	if _, err := reg.Create(); !errors.Is(err, ErrCodeSpace) {
		t.Errorf("Expected ErrCodeSpace, got %v", err)
	}
}

func TestDeleteClosesRoom(t *testing.T) {
	reg := New()
	rm, _ := reg.Create()
	code := rm.Code()

	if err := reg.Delete(code); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := reg.Get(code); !errors.Is(err, ErrRoomNotFound) {
		t.Error("Deleted room should not be retrievable")
	}
	if err := rm.Admit(room.Player{ID: "p1", Name: "Ann"}, nopSink{}); !errors.Is(err, room.ErrRoomClosed) {
		t.Errorf("Deleted room should be closed, Admit returned %v", err)
	}

	if err := reg.Delete(code); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Deleting twice should report not found, got %v", err)
	}
}

func TestListAndCount(t *testing.T) {
	reg := New()

	if reg.Count() != 0 {
		t.Errorf("Expected empty registry, got count %d", reg.Count())
	}

	a, _ := reg.Create()
	b, _ := reg.Create()

	if reg.Count() != 2 {
		t.Errorf("Expected count 2, got %d", reg.Count())
	}

	codes := make(map[string]bool)
	for _, rm := range reg.List() {
		codes[rm.Code()] = true
	}
	if !codes[a.Code()] || !codes[b.Code()] {
		t.Errorf("List missing created rooms: %v", codes)
	}
}

func TestCleanupIdle(t *testing.T) {
	reg := New()

	idle, _ := reg.Create()
	occupied, _ := reg.Create()
	if err := occupied.Admit(room.Player{ID: "p1", Name: "Ann"}, nopSink{}); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	removed := reg.CleanupIdle(5 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("Expected 1 room removed, got %d", removed)
	}

	if _, err := reg.Get(idle.Code()); !errors.Is(err, ErrRoomNotFound) {
		t.Error("Idle room should have been evicted")
	}
	if _, err := reg.Get(occupied.Code()); err != nil {
		t.Error("Occupied room must survive cleanup")
	}
}

func TestCleanupIdleRespectsTTL(t *testing.T) {
	reg := New()
	rm, _ := reg.Create()

	if removed := reg.CleanupIdle(time.Hour); removed != 0 {
		t.Fatalf("Fresh empty room evicted before its TTL, removed=%d", removed)
	}
	if _, err := reg.Get(rm.Code()); err != nil {
		t.Error("Room should still exist inside its TTL window")
	}
}
