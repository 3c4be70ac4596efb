package app

import (
	"testing"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

func TestMeetingsJoinIdempotent(t *testing.T) {
	m := NewMeetings()
	p, created := m.Join("7", domain.User{ID: "1"}, domain.RoleHost)
	if !created || p.Role != domain.RoleHost || !p.AudioEnabled || !p.VideoEnabled {
		t.Fatalf("first join: %+v created=%v", p, created)
	}
	if _, created := m.Join("7", domain.User{ID: "1"}, domain.RoleParticipant); created {
		t.Fatalf("second join created a new participant")
	}
	if ps := m.Participants("7"); len(ps) != 1 || ps[0].Role != domain.RoleHost {
		t.Fatalf("participants: %+v", ps)
	}
}

func TestMeetingsInvalidRoleDefaults(t *testing.T) {
	m := NewMeetings()
	p, _ := m.Join("7", domain.User{ID: "1"}, domain.Role("admin"))
	if p.Role != domain.RoleParticipant {
		t.Fatalf("role = %q", p.Role)
	}
}

func TestMeetingsParticipantsInJoinOrder(t *testing.T) {
	m := NewMeetings()
	base := time.Unix(1_700_000_000, 0)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	for _, id := range []domain.UserID{"3", "1", "2"} {
		m.Join("7", domain.User{ID: id}, domain.RoleParticipant)
	}
	ps := m.Participants("7")
	got := []domain.UserID{ps[0].User.ID, ps[1].User.ID, ps[2].User.ID}
	if got[0] != "3" || got[1] != "1" || got[2] != "2" {
		t.Fatalf("order = %v", got)
	}
}

func TestMeetingsSetFlags(t *testing.T) {
	m := NewMeetings()
	m.Join("7", domain.User{ID: "1"}, domain.RoleParticipant)
	if p, ok := m.SetAudio("7", "1", false); !ok || p.AudioEnabled {
		t.Fatalf("set audio: %+v ok=%v", p, ok)
	}
	if p, ok := m.SetVideo("7", "1", false); !ok || p.VideoEnabled || p.AudioEnabled {
		t.Fatalf("set video: %+v ok=%v", p, ok)
	}
	if _, ok := m.SetAudio("7", "2", true); ok {
		t.Fatalf("set audio on absent participant succeeded")
	}
}

func TestMeetingsLeave(t *testing.T) {
	m := NewMeetings()
	m.Join("7", domain.User{ID: "1"}, domain.RoleParticipant)
	if !m.Leave("7", "1") {
		t.Fatalf("leave returned false")
	}
	if m.Leave("7", "1") {
		t.Fatalf("second leave returned true")
	}
	if len(m.List()) != 0 {
		t.Fatalf("empty meeting kept: %v", m.List())
	}
}
