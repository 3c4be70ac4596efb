package app

import (
	"context"
	"errors"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSocket = errors.New("unknown socket")
	ErrNotSubscribed = errors.New("socket not subscribed to channel")
	ErrEmptyChannel  = errors.New("channel name empty")
)

// Hub owns socket bookkeeping, channel membership and meeting presence.
// Frames are opaque here; encoding is the transport's business.
type Hub struct {
	Registry *Registry
	Rooms    core.RoomManager
	Policy   Policy
	Meetings *Meetings
}

func NewHub(policy Policy) *Hub {
	return &Hub{
		Registry: NewRegistry(),
		Rooms:    NewRoomManager(),
		Policy:   policy,
		Meetings: NewMeetings(),
	}
}

func (h *Hub) Connect(sub core.Subscriber, cancel context.CancelFunc) {
	h.Registry.Bind(sub, cancel)
	metrics.ActiveSockets.Inc()
	metrics.SocketsTotal.Inc()
}

func (h *Hub) Subscribe(id core.SocketID, channel string) error {
	if channel == "" {
		return ErrEmptyChannel
	}
	sub, ok := h.Registry.Get(id)
	if !ok {
		return ErrUnknownSocket
	}
	h.Rooms.Join(channel, sub)
	h.Registry.AddChannel(id, channel)
	log.Debug().Str("module", "app.hub").Str("sid", string(id)).Str("channel", channel).Msg("subscribed")
	return nil
}

func (h *Hub) Unsubscribe(id core.SocketID, channel string) {
	h.Registry.RemoveChannel(id, channel)
	h.leaveRoom(id, channel)
}

// Relay fans a client event out to the other subscribers of channel.
// The sender must itself be subscribed.
func (h *Hub) Relay(id core.SocketID, channel string, data core.Frame) (int, error) {
	room, ok := h.Rooms.Get(channel)
	if !ok || !room.HasMember(id) {
		return 0, ErrNotSubscribed
	}
	n := h.deliver(room, id, data)
	metrics.WhispersRelayed.Inc()
	return n, nil
}

// Publish sends a server event to every subscriber of channel. A channel
// nobody listens to is not created.
func (h *Hub) Publish(channel string, data core.Frame) int {
	room, ok := h.Rooms.Get(channel)
	if !ok {
		return 0
	}
	return h.deliver(room, "", data)
}

func (h *Hub) deliver(room core.RoomService, from core.SocketID, data core.Frame) int {
	res := room.Broadcast(from, data)
	if h.Policy == nil {
		return res.SentTo
	}
	for _, slow := range res.Dropped {
		switch h.Policy.OnBackPressure(room, slow) {
		case KickMember:
			log.Warn().Str("module", "app.hub").Str("sid", string(slow.ID())).Str("channel", room.Name()).Msg("kicking slow socket")
			h.Kick(slow.ID())
		case MarkSlow, DropFrame, NoAction:
		}
	}
	return res.SentTo
}

// Kick closes the socket; the transport's read loop ends and calls Disconnect.
func (h *Hub) Kick(id core.SocketID) {
	if sub, ok := h.Registry.Get(id); ok {
		sub.Close()
	}
	h.Registry.Cancel(id)
}

func (h *Hub) JoinMeeting(id domain.MeetingID, u domain.User, role domain.Role) (domain.Participant, bool) {
	return h.Meetings.Join(id, u, role)
}

func (h *Hub) LeaveMeeting(id domain.MeetingID, u domain.UserID) bool {
	return h.Meetings.Leave(id, u)
}

// Disconnect forgets the socket and its subscriptions. When it was the
// user's last socket, the user's meeting presence is dropped and the
// meetings it was removed from are returned.
func (h *Hub) Disconnect(id core.SocketID) []domain.MeetingID {
	sub, ok := h.Registry.Get(id)
	if !ok {
		return nil
	}
	channels, ok := h.Registry.Unbind(id)
	if !ok {
		return nil
	}
	metrics.ActiveSockets.Dec()
	for _, ch := range channels {
		h.leaveRoom(id, ch)
	}
	user := sub.User()
	if user == "" || h.Registry.SocketsOfUser(user) > 0 {
		return nil
	}
	var left []domain.MeetingID
	for _, m := range h.Meetings.MeetingsOf(user) {
		if h.Meetings.Leave(m, user) {
			left = append(left, m)
		}
	}
	return left
}

func (h *Hub) leaveRoom(id core.SocketID, channel string) {
	room, ok := h.Rooms.Get(channel)
	if !ok {
		return
	}
	room.RemoveMember(id)
	if h.Rooms.StopRoomIfEmpty(channel) {
		log.Debug().Str("module", "app.hub").Str("channel", channel).Msg("channel dropped")
	}
}

func (h *Hub) Channels() []core.RoomInfo {
	return h.Rooms.List()
}
