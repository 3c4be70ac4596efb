package orch

import (
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/media"
)

// State is the call lifecycle state.
type State string

const (
	StateIdle                State = "idle"
	StateRequesting          State = "requesting-permissions"
	StatePermissionsResolved State = "permissions-resolved"
	StateStarting            State = "starting"
	StateActive              State = "active"
	StateEnding              State = "ending"
	StateEnded               State = "ended"
	StateError               State = "error"
)

// busy states refuse a new Prepare or StartCall.
func (s State) busy() bool {
	switch s {
	case StateRequesting, StateStarting, StateActive, StateEnding:
		return true
	}
	return false
}

// Status is what a presentation layer renders: a state plus free text.
type Status struct {
	State  State  `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Session is a point-in-time copy of the local session.
type Session struct {
	Meeting    domain.MeetingID      `json:"meeting_id"`
	Self       domain.UserID         `json:"user_id"`
	Role       domain.Role           `json:"role"`
	Permission media.PermissionState `json:"permission"`
	Status     Status                `json:"status"`

	// Connection is the latest peer connection state label.
	Connection    string `json:"connection,omitempty"`
	Connected     bool   `json:"connected"`
	AudioEnabled  bool   `json:"audio_enabled"`
	VideoEnabled  bool   `json:"video_enabled"`
	ScreenSharing bool   `json:"screen_sharing"`
	Recording     bool   `json:"recording"`

	Peers         int             `json:"peers"`
	RemoteStreams int             `json:"remote_streams"`
	SharingPeers  []domain.UserID `json:"sharing_peers,omitempty"`
}
