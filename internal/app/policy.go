package app

import "github.com/codinglabe/believe-app-sub028/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a subscriber whose send queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.Subscriber) BackpressureAction
}

// SimplePolicy drops the frame for client events and kicks sockets that
// cannot keep up with structural events, which must not be lost.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.Subscriber) BackpressureAction {
	return KickMember
}

// LenientPolicy never disconnects anyone.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(core.RoomService, core.Subscriber) BackpressureAction {
	return DropFrame
}
