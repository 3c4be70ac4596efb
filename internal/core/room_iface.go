package core

import "github.com/codinglabe/believe-app-sub028/internal/domain"

// SocketID identifies one hub websocket connection.
type SocketID string

// Frame is an encoded protocol message.
type Frame []byte

// Subscriber is a hub socket as seen by the rooms it is subscribed to.
type Subscriber interface {
	ID() SocketID
	User() domain.UserID
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []Subscriber
}

// RoomService is one pub/sub channel of the hub.
// It owns the subscriber set but never touches transport resources.
type RoomService interface {
	Name() string
	MemberCount() int
	HasMember(id SocketID) bool

	AddMember(s Subscriber)
	RemoveMember(id SocketID)
	// Broadcast sends data to every member except from; an empty from
	// reaches everyone.
	Broadcast(from SocketID, data Frame) PublishResult
}

type RoomInfo struct {
	Name        string `json:"name"`
	MemberCount int    `json:"subscriber_count"`
}

type RoomManager interface {
	Get(name string) (RoomService, bool)
	List() []RoomInfo
	// Join adds s to the named room, creating it if needed.
	Join(name string, s Subscriber) RoomService
	// StopRoomIfEmpty drops the room when it has no members left and
	// reports whether it did.
	StopRoomIfEmpty(name string) bool
}
