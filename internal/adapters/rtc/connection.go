package rtc

import (
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Connection adapts *webrtc.PeerConnection to core.MediaConnection.
type Connection struct {
	pc   *webrtc.PeerConnection
	peer domain.UserID
}

func (c *Connection) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

func (c *Connection) CreateAnswer() (webrtc.SessionDescription, error) {
	return c.pc.CreateAnswer(nil)
}

func (c *Connection) SetLocalDescription(sd webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(sd)
}

func (c *Connection) SetRemoteDescription(sd webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(sd)
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

// AddTrack attaches a local track and starts draining the sender's RTCP,
// which the interceptors need.
func (c *Connection) AddTrack(t webrtc.TrackLocal) (core.Sender, error) {
	s, err := c.pc.AddTrack(t)
	if err != nil {
		return nil, err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := s.Read(buf); err != nil {
				return
			}
		}
	}()
	return &sender{s: s, kind: t.Kind()}, nil
}

func (c *Connection) Senders() []core.Sender {
	var out []core.Sender
	for _, tr := range c.pc.GetTransceivers() {
		if s := tr.Sender(); s != nil {
			out = append(out, &sender{s: s, kind: tr.Kind()})
		}
	}
	return out
}

func (c *Connection) ConnectionState() webrtc.PeerConnectionState {
	return c.pc.ConnectionState()
}

func (c *Connection) ICEConnectionState() webrtc.ICEConnectionState {
	return c.pc.ICEConnectionState()
}

func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		// nil marks the end of gathering.
		if cand != nil {
			fn(cand.ToJSON())
		}
	})
}

func (c *Connection) OnTrack(fn func(core.RemoteTrack)) {
	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Debug().
			Str("module", "rtc").
			Str("peer", string(c.peer)).
			Str("kind", track.Kind().String()).
			Str("codec", track.Codec().MimeType).
			Msg("OnTrack received")
		fn(track)
	})
}

func (c *Connection) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.pc.OnConnectionStateChange(fn)
}

func (c *Connection) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	c.pc.OnICEConnectionStateChange(fn)
}

func (c *Connection) Close() error {
	return c.pc.Close()
}

type sender struct {
	s    *webrtc.RTPSender
	kind webrtc.RTPCodecType
}

func (s *sender) Kind() webrtc.RTPCodecType { return s.kind }

func (s *sender) Track() webrtc.TrackLocal { return s.s.Track() }

func (s *sender) ReplaceTrack(t webrtc.TrackLocal) error { return s.s.ReplaceTrack(t) }
