package core

import (
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

// MediaConnection is the negotiated transport toward one remote participant.
// Implementations wrap *webrtc.PeerConnection; Close must release it.
type MediaConnection interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error

	// AddTrack attaches a local track and returns its sender.
	AddTrack(webrtc.TrackLocal) (Sender, error)
	Senders() []Sender

	ConnectionState() webrtc.PeerConnectionState
	ICEConnectionState() webrtc.ICEConnectionState

	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(RemoteTrack))
	OnConnectionStateChange(func(webrtc.PeerConnectionState))
	OnICEConnectionStateChange(func(webrtc.ICEConnectionState))

	Close() error
}

// Sender is the outbound side of one transceiver.
type Sender interface {
	Kind() webrtc.RTPCodecType
	Track() webrtc.TrackLocal
	// ReplaceTrack swaps the outgoing track without renegotiation.
	ReplaceTrack(webrtc.TrackLocal) error
}

// RemoteTrack is satisfied by *webrtc.TrackRemote.
type RemoteTrack interface {
	ID() string
	StreamID() string
	Kind() webrtc.RTPCodecType
	Codec() webrtc.RTPCodecParameters
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}
