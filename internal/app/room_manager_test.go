package app

import (
	"sync"
	"testing"

	"github.com/codinglabe/believe-app-sub028/internal/core"
)

func TestStopRoomIfEmptyKeepsMembers(t *testing.T) {
	m := NewRoomManager()
	a := &fakeSocket{id: "a"}
	m.Join("meeting.7", a)
	if m.StopRoomIfEmpty("meeting.7") {
		t.Fatalf("room with a member dropped")
	}
	room, ok := m.Get("meeting.7")
	if !ok {
		t.Fatalf("room missing")
	}
	room.RemoveMember("a")
	if !m.StopRoomIfEmpty("meeting.7") {
		t.Fatalf("empty room kept")
	}
	if m.StopRoomIfEmpty("meeting.7") {
		t.Fatalf("unknown room reported dropped")
	}
}

// A subscriber joining while the last member leaves must end up in a
// registered room.
func TestJoinRacingLastLeave(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := NewHub(nil)
		a := connect(h, "a", "1")
		b := connect(h, "b", "2")
		if err := h.Subscribe(a.id, "meeting.7"); err != nil {
			t.Fatalf("subscribe a: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Unsubscribe(a.id, "meeting.7")
		}()
		go func() {
			defer wg.Done()
			_ = h.Subscribe(b.id, "meeting.7")
		}()
		wg.Wait()

		if n := h.Publish("meeting.7", core.Frame("hello")); n != 1 {
			t.Fatalf("iteration %d: publish reached %d, want 1", i, n)
		}
		if got := b.received(); len(got) != 1 || got[0] != "hello" {
			t.Fatalf("iteration %d: b received %v", i, got)
		}
	}
}
