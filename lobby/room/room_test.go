package room

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// testSink collects delivered events. failAfter, when non-negative,
// makes Deliver fail once that many events have been accepted, which
// models a peer that stops draining its connection.
type testSink struct {
	mu        sync.Mutex
	events    []Event
	closed    bool
	failAfter int
}

func newTestSink() *testSink {
	return &testSink{failAfter: -1}
}

func (s *testSink) Deliver(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAfter >= 0 && len(s.events) >= s.failAfter {
		return errors.New("peer not draining")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *testSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *testSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *testSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// messages extracts the new_message events from an observed sequence.
func messages(events []Event) []ChatMessage {
	var out []ChatMessage
	for _, ev := range events {
		if ev.Type == EventNewMessage {
			out = append(out, *ev.Message)
		}
	}
	return out
}

func TestAdmitBroadcastsJoinToSelf(t *testing.T) {
	rm := New("ABC123")
	sink := newTestSink()

	if err := rm.Admit(Player{ID: "p1", Name: "Ann"}, sink); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventUserJoins || events[0].Player.ID != "p1" {
		t.Errorf("Expected own user_joins, got %+v", events[0])
	}
}

func TestAdmitBroadcastsJoinToExistingMembers(t *testing.T) {
	rm := New("ABC123")
	sink1 := newTestSink()
	sink2 := newTestSink()

	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink1)
	rm.Admit(Player{ID: "p2", Name: "Bo"}, sink2)

	events := sink1.Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events for p1, got %d", len(events))
	}
	if events[1].Type != EventUserJoins || events[1].Player.ID != "p2" {
		t.Errorf("Expected user_joins for p2, got %+v", events[1])
	}

	// The new member sees only its own join, not history before it.
	if got := sink2.Events(); len(got) != 1 || got[0].Player.ID != "p2" {
		t.Errorf("Expected p2 to see only its own join, got %+v", got)
	}
}

func TestAdmitRejectsDuplicatePlayer(t *testing.T) {
	rm := New("ABC123")
	rm.Admit(Player{ID: "p1", Name: "Ann"}, newTestSink())

	second := newTestSink()
	err := rm.Admit(Player{ID: "p1", Name: "Ann again"}, second)
	if !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("Expected ErrAlreadyJoined, got %v", err)
	}

	// The rejected sink must not have been registered
	rm.Post("p1", "still here")
	if len(second.Events()) != 0 {
		t.Error("Rejected sink should receive no events")
	}
}

func TestRemoveBroadcastsSingleLeave(t *testing.T) {
	rm := New("ABC123")
	sink1 := newTestSink()
	sink2 := newTestSink()

	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink1)
	rm.Admit(Player{ID: "p2", Name: "Bo"}, sink2)

	rm.Remove("p2")
	rm.Remove("p2") // repeated removal is a no-op
	rm.Remove("p2")

	leaves := 0
	for _, ev := range sink1.Events() {
		if ev.Type == EventUserLeaves && ev.Player.ID == "p2" {
			leaves++
		}
	}
	if leaves != 1 {
		t.Errorf("Expected exactly 1 user_leaves for p2, got %d", leaves)
	}

	if !sink2.Closed() {
		t.Error("Removed member's sink should be closed")
	}

	for _, p := range rm.Players() {
		if p.ID == "p2" {
			t.Error("p2 should no longer be a member")
		}
	}
}

func TestRemoveUnknownPlayerIsNoOp(t *testing.T) {
	rm := New("ABC123")
	sink := newTestSink()
	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink)

	rm.Remove("ghost")

	if got := len(sink.Events()); got != 1 {
		t.Errorf("Expected no extra events after removing a non-member, got %d", got)
	}
}

func TestPostAppendsAndBroadcasts(t *testing.T) {
	rm := New("ABC123")
	sink1 := newTestSink()
	sink2 := newTestSink()

	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink1)
	rm.Admit(Player{ID: "p2", Name: "Bo"}, sink2)

	msg, err := rm.Post("p1", "hi")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if msg.ID == "" {
		t.Error("Expected message to get an id")
	}
	if msg.PlayerName != "Ann" {
		t.Errorf("Expected author name Ann, got %s", msg.PlayerName)
	}

	for name, sink := range map[string]*testSink{"p1": sink1, "p2": sink2} {
		got := messages(sink.Events())
		if len(got) != 1 || got[0].Text != "hi" || got[0].PlayerID != "p1" {
			t.Errorf("Sink %s observed wrong messages: %+v", name, got)
		}
	}

	history := rm.Messages()
	if len(history) != 1 || history[0].ID != msg.ID {
		t.Errorf("Expected history to contain the posted message, got %+v", history)
	}
}

func TestPostFromNonMember(t *testing.T) {
	rm := New("ABC123")
	sink := newTestSink()
	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink)

	_, err := rm.Post("stranger", "let me in")
	if !errors.Is(err, ErrNotAMember) {
		t.Fatalf("Expected ErrNotAMember, got %v", err)
	}

	if len(rm.Messages()) != 0 {
		t.Error("History must not be mutated by a rejected post")
	}
	if got := messages(sink.Events()); len(got) != 0 {
		t.Errorf("No member should observe a rejected post, got %+v", got)
	}
}

func TestRejoinAfterLeave(t *testing.T) {
	rm := New("ABC123")

	rm.Admit(Player{ID: "p1", Name: "Ann"}, newTestSink())
	rm.Remove("p1")

	sink := newTestSink()
	if err := rm.Admit(Player{ID: "p1", Name: "Ann"}, sink); err != nil {
		t.Fatalf("Rejoin after leave should succeed, got %v", err)
	}

	if _, err := rm.Post("p1", "back"); err != nil {
		t.Errorf("Post after rejoin failed: %v", err)
	}
}

func TestSlowSinkIsDroppedWithoutBlockingOthers(t *testing.T) {
	rm := New("ABC123")
	healthy := newTestSink()
	slow := newTestSink()
	slow.failAfter = 2 // accepts its join and one more event, then wedges

	rm.Admit(Player{ID: "good", Name: "Good"}, healthy)
	rm.Admit(Player{ID: "slow", Name: "Slow"}, slow)

	// First post fills the slow sink's budget, second one trips it.
	if _, err := rm.Post("good", "one"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if _, err := rm.Post("good", "two"); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if !slow.Closed() {
		t.Error("Slow sink should have been closed")
	}

	// The slow member must be gone and its departure visible to others.
	for _, p := range rm.Players() {
		if p.ID == "slow" {
			t.Error("Slow member should have been removed")
		}
	}
	sawLeave := false
	for _, ev := range healthy.Events() {
		if ev.Type == EventUserLeaves && ev.Player.ID == "slow" {
			sawLeave = true
		}
	}
	if !sawLeave {
		t.Error("Expected user_leaves for the dropped slow member")
	}

	// Subsequent events still flow to the healthy sink.
	rm.Post("good", "three")
	got := messages(healthy.Events())
	if len(got) != 3 || got[2].Text != "three" {
		t.Errorf("Healthy sink should keep receiving, got %+v", got)
	}
}

func TestPerRecipientOrderMatchesRoomOrder(t *testing.T) {
	rm := New("ABC123")

	const members = 4
	const postsEach = 25

	sinks := make([]*testSink, members)
	for i := 0; i < members; i++ {
		sinks[i] = newTestSink()
		id := fmt.Sprintf("p%d", i)
		if err := rm.Admit(Player{ID: id, Name: id}, sinks[i]); err != nil {
			t.Fatalf("Admit %s failed: %v", id, err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("p%d", i)
			for n := 0; n < postsEach; n++ {
				if _, err := rm.Post(id, fmt.Sprintf("%s-%d", id, n)); err != nil {
					t.Errorf("Post from %s failed: %v", id, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	history := rm.Messages()
	if len(history) != members*postsEach {
		t.Fatalf("Expected %d messages in history, got %d", members*postsEach, len(history))
	}

	// Every member was admitted before any post, so each must observe
	// the complete history in exactly the room's append order.
	for i, sink := range sinks {
		got := messages(sink.Events())
		if len(got) != len(history) {
			t.Fatalf("Sink %d observed %d messages, want %d", i, len(got), len(history))
		}
		for n := range history {
			if got[n].ID != history[n].ID {
				t.Fatalf("Sink %d message %d out of order: got %s, want %s",
					i, n, got[n].Text, history[n].Text)
			}
		}
	}
}

func TestCloseDisconnectsEveryone(t *testing.T) {
	rm := New("ABC123")
	sink := newTestSink()
	rm.Admit(Player{ID: "p1", Name: "Ann"}, sink)

	rm.Close()
	rm.Close() // idempotent

	if !sink.Closed() {
		t.Error("Close should release member sinks")
	}
	if err := rm.Admit(Player{ID: "p2", Name: "Bo"}, newTestSink()); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed from Admit, got %v", err)
	}
	if _, err := rm.Post("p1", "hello?"); !errors.Is(err, ErrRoomClosed) {
		t.Errorf("Expected ErrRoomClosed from Post, got %v", err)
	}
}

func TestIdleSince(t *testing.T) {
	rm := New("ABC123")

	if _, empty := rm.IdleSince(); !empty {
		t.Error("A new room should report as empty")
	}

	rm.Admit(Player{ID: "p1", Name: "Ann"}, newTestSink())
	if _, empty := rm.IdleSince(); empty {
		t.Error("An occupied room should not report as empty")
	}

	rm.Remove("p1")
	since, empty := rm.IdleSince()
	if !empty {
		t.Fatal("Room should report empty after last member leaves")
	}
	if since.IsZero() {
		t.Error("Expected a non-zero empty-since timestamp")
	}
}
