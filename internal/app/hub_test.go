package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

var errFull = errors.New("queue full")

type fakeSocket struct {
	id   core.SocketID
	user domain.UserID
	full bool

	mu     sync.Mutex
	frames []string
	closed bool
}

func (s *fakeSocket) ID() core.SocketID   { return s.id }
func (s *fakeSocket) User() domain.UserID { return s.user }

func (s *fakeSocket) TrySend(f core.Frame) error {
	if s.full {
		return errFull
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, string(f))
	return nil
}

func (s *fakeSocket) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSocket) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames...)
}

func connect(h *Hub, sid, user string) *fakeSocket {
	s := &fakeSocket{id: core.SocketID(sid), user: domain.UserID(user)}
	h.Connect(s, nil)
	return s
}

func TestRelaySkipsSender(t *testing.T) {
	h := NewHub(SimplePolicy{})
	a := connect(h, "a", "1")
	b := connect(h, "b", "2")
	for _, s := range []*fakeSocket{a, b} {
		if err := h.Subscribe(s.id, "meeting.7"); err != nil {
			t.Fatalf("subscribe %s: %v", s.id, err)
		}
	}

	n, err := h.Relay("a", "meeting.7", core.Frame("hello"))
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if n != 1 {
		t.Fatalf("relayed to %d sockets, want 1", n)
	}
	if got := b.received(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("b received %v", got)
	}
	if got := a.received(); len(got) != 0 {
		t.Fatalf("sender received its own frame: %v", got)
	}
}

func TestRelayRequiresSubscription(t *testing.T) {
	h := NewHub(SimplePolicy{})
	connect(h, "a", "1")
	b := connect(h, "b", "2")
	if err := h.Subscribe(b.id, "meeting.7"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := h.Relay("a", "meeting.7", core.Frame("x")); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("relay from outsider: err = %v, want ErrNotSubscribed", err)
	}
	if _, err := h.Relay("a", "meeting.8", core.Frame("x")); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("relay to unknown channel: err = %v, want ErrNotSubscribed", err)
	}
}

func TestSubscribeErrors(t *testing.T) {
	h := NewHub(nil)
	connect(h, "a", "1")
	if err := h.Subscribe("a", ""); !errors.Is(err, ErrEmptyChannel) {
		t.Fatalf("empty channel: err = %v", err)
	}
	if err := h.Subscribe("zz", "meeting.1"); !errors.Is(err, ErrUnknownSocket) {
		t.Fatalf("unknown socket: err = %v", err)
	}
}

func TestPublishReachesEveryone(t *testing.T) {
	h := NewHub(nil)
	a := connect(h, "a", "1")
	b := connect(h, "b", "2")
	_ = h.Subscribe("a", "meeting.7")
	_ = h.Subscribe("b", "meeting.7")

	if n := h.Publish("meeting.7", core.Frame("evt")); n != 2 {
		t.Fatalf("published to %d, want 2", n)
	}
	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Fatalf("a=%v b=%v", a.received(), b.received())
	}
	if n := h.Publish("meeting.nobody", core.Frame("evt")); n != 0 {
		t.Fatalf("published to %d on empty channel", n)
	}
	if _, ok := h.Rooms.Get("meeting.nobody"); ok {
		t.Fatalf("publish created a channel")
	}
}

func TestSlowSocketKicked(t *testing.T) {
	h := NewHub(SimplePolicy{})
	a := connect(h, "a", "1")
	slow := connect(h, "slow", "2")
	slow.full = true
	_ = h.Subscribe("a", "meeting.7")
	_ = h.Subscribe("slow", "meeting.7")

	h.Publish("meeting.7", core.Frame("evt"))
	slow.mu.Lock()
	closed := slow.closed
	slow.mu.Unlock()
	if !closed {
		t.Fatalf("slow socket was not closed")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		t.Fatalf("healthy socket was closed")
	}
}

func TestLenientPolicyKeepsSlowSocket(t *testing.T) {
	h := NewHub(LenientPolicy{})
	slow := connect(h, "slow", "2")
	slow.full = true
	_ = h.Subscribe("slow", "meeting.7")
	h.Publish("meeting.7", core.Frame("evt"))
	if slow.closed {
		t.Fatalf("lenient policy closed the socket")
	}
}

func TestUnsubscribeDropsEmptyChannel(t *testing.T) {
	h := NewHub(nil)
	connect(h, "a", "1")
	_ = h.Subscribe("a", "meeting.7")
	h.Unsubscribe("a", "meeting.7")
	if _, ok := h.Rooms.Get("meeting.7"); ok {
		t.Fatalf("empty channel kept")
	}
	if got := h.Registry.ChannelsOf("a"); len(got) != 0 {
		t.Fatalf("channels after unsubscribe: %v", got)
	}
}

func TestDisconnectDropsPresenceWithLastSocket(t *testing.T) {
	h := NewHub(nil)
	first := connect(h, "a", "1")
	connect(h, "b", "1")
	_ = h.Subscribe(first.id, "meeting.7")
	h.JoinMeeting("7", domain.User{ID: "1"}, domain.RoleHost)
	h.JoinMeeting("9", domain.User{ID: "1"}, domain.RoleParticipant)

	if left := h.Disconnect("a"); len(left) != 0 {
		t.Fatalf("left %v while another socket is open", left)
	}
	if _, ok := h.Rooms.Get("meeting.7"); ok {
		t.Fatalf("channel kept after last subscriber left")
	}
	left := h.Disconnect("b")
	if len(left) != 2 || left[0] != "7" || left[1] != "9" {
		t.Fatalf("left = %v, want [7 9]", left)
	}
	if ps := h.Meetings.Participants("7"); len(ps) != 0 {
		t.Fatalf("participants after disconnect: %v", ps)
	}
	if left := h.Disconnect("b"); left != nil {
		t.Fatalf("second disconnect returned %v", left)
	}
	if h.Registry.Len() != 0 {
		t.Fatalf("registry not empty")
	}
}
