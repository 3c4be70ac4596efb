package domain

import (
	"strings"
	"time"
)

type MeetingID string

// Channel is the room-scoped pub/sub channel name for the meeting.
func (m MeetingID) Channel() string {
	return "meeting." + string(m)
}

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleParticipant
}

// Participant represents a user's presence in a meeting.
// No transport or lifecycle logic here.
type Participant struct {
	User         User      `json:"user"`
	Role         Role      `json:"role"`
	AudioEnabled bool      `json:"audio_enabled"`
	VideoEnabled bool      `json:"video_enabled"`
	JoinedAt     time.Time `json:"joined_at"`
}

const streamPrefix = "user-"

// StreamID is the media stream identifier a participant's camera stream uses.
func StreamID(u UserID) string {
	return streamPrefix + string(u)
}

// ScreenStreamID is the media stream identifier of a participant's screen capture.
func ScreenStreamID(u UserID) string {
	return StreamID(u) + "-screen"
}

// OwnsStream reports whether streamID follows u's stream naming convention.
func OwnsStream(u UserID, streamID string) bool {
	base := StreamID(u)
	return streamID == base || strings.HasPrefix(streamID, base+"-")
}
