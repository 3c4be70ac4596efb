// Package coretest provides in-memory implementations of the core interfaces
// for tests.
package coretest

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

var errNoRemote = errors.New("remote description not set")

// Conn is a scripted core.MediaConnection. Like pion, it refuses remote
// candidates before a remote description.
type Conn struct {
	Peer domain.UserID

	mu         sync.Mutex
	remote     *webrtc.SessionDescription
	local      *webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	senders    []*Sender
	state      webrtc.PeerConnectionState
	closed     bool
	offers     int
	answers    int

	onICE      func(webrtc.ICECandidateInit)
	onTrack    func(core.RemoteTrack)
	onState    func(webrtc.PeerConnectionState)
	onICEState func(webrtc.ICEConnectionState)

	// FailRemote, when set, is returned by SetRemoteDescription.
	FailRemote error
}

func NewConn(peer domain.UserID) *Conn {
	return &Conn{Peer: peer, state: webrtc.PeerConnectionStateNew}
}

func (c *Conn) CreateOffer() (webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: fmt.Sprintf("offer-%s-%d", c.Peer, c.offers)}, nil
}

func (c *Conn) CreateAnswer() (webrtc.SessionDescription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil || c.remote.Type != webrtc.SDPTypeOffer {
		return webrtc.SessionDescription{}, errors.New("no remote offer")
	}
	c.answers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: fmt.Sprintf("answer-%s-%d", c.Peer, c.answers)}, nil
}

func (c *Conn) SetLocalDescription(sd webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = &sd
	return nil
}

func (c *Conn) SetRemoteDescription(sd webrtc.SessionDescription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailRemote != nil {
		return c.FailRemote
	}
	c.remote = &sd
	return nil
}

func (c *Conn) AddICECandidate(ci webrtc.ICECandidateInit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return errNoRemote
	}
	c.candidates = append(c.candidates, ci)
	return nil
}

func (c *Conn) AddTrack(t webrtc.TrackLocal) (core.Sender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Sender{kind: t.Kind(), track: t}
	c.senders = append(c.senders, s)
	return s, nil
}

func (c *Conn) Senders() []core.Sender {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Sender, 0, len(c.senders))
	for _, s := range c.senders {
		out = append(out, s)
	}
	return out
}

func (c *Conn) ConnectionState() webrtc.PeerConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) ICEConnectionState() webrtc.ICEConnectionState {
	return webrtc.ICEConnectionStateNew
}

func (c *Conn) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICE = fn
}

func (c *Conn) OnTrack(fn func(core.RemoteTrack)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrack = fn
}

func (c *Conn) OnConnectionStateChange(fn func(webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

func (c *Conn) OnICEConnectionStateChange(fn func(webrtc.ICEConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onICEState = fn
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.state = webrtc.PeerConnectionStateClosed
	c.mu.Unlock()
	return nil
}

// EmitState drives the connection-state callback.
func (c *Conn) EmitState(s webrtc.PeerConnectionState) {
	c.mu.Lock()
	c.state = s
	fn := c.onState
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// EmitCandidate drives the local ICE candidate callback.
func (c *Conn) EmitCandidate(ci webrtc.ICECandidateInit) {
	c.mu.Lock()
	fn := c.onICE
	c.mu.Unlock()
	if fn != nil {
		fn(ci)
	}
}

// EmitTrack drives the remote track callback.
func (c *Conn) EmitTrack(t core.RemoteTrack) {
	c.mu.Lock()
	fn := c.onTrack
	c.mu.Unlock()
	if fn != nil {
		fn(t)
	}
}

func (c *Conn) Remote() *webrtc.SessionDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote
}

func (c *Conn) Local() *webrtc.SessionDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}

func (c *Conn) Candidates() []webrtc.ICECandidateInit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]webrtc.ICECandidateInit(nil), c.candidates...)
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeSenders exposes the concrete senders.
func (c *Conn) FakeSenders() []*Sender {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Sender(nil), c.senders...)
}

// Sender records track replacements.
type Sender struct {
	mu           sync.Mutex
	kind         webrtc.RTPCodecType
	track        webrtc.TrackLocal
	replacements int

	// Fail, when set, is returned by ReplaceTrack.
	Fail error
}

func (s *Sender) Kind() webrtc.RTPCodecType { return s.kind }

func (s *Sender) Track() webrtc.TrackLocal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

func (s *Sender) ReplaceTrack(t webrtc.TrackLocal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.track = t
	s.replacements++
	return nil
}

func (s *Sender) Replacements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replacements
}

// Factory hands out Conns and remembers them by peer.
type Factory struct {
	mu      sync.Mutex
	conns   map[domain.UserID][]*Conn
	created int
}

func NewFactory() *Factory {
	return &Factory{conns: make(map[domain.UserID][]*Conn)}
}

func (f *Factory) New(peer domain.UserID) (core.MediaConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := NewConn(peer)
	f.conns[peer] = append(f.conns[peer], c)
	f.created++
	return c, nil
}

// Last returns the most recent connection made for peer.
func (f *Factory) Last(peer domain.UserID) *Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs := f.conns[peer]
	if len(cs) == 0 {
		return nil
	}
	return cs[len(cs)-1]
}

func (f *Factory) Created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

// RemoteTrack is a remote track that ends immediately.
type RemoteTrack struct {
	TrackID string
	Stream  string
	Type    webrtc.RTPCodecType
}

func (t *RemoteTrack) ID() string                { return t.TrackID }
func (t *RemoteTrack) StreamID() string          { return t.Stream }
func (t *RemoteTrack) Kind() webrtc.RTPCodecType { return t.Type }

func (t *RemoteTrack) Codec() webrtc.RTPCodecParameters {
	return webrtc.RTPCodecParameters{}
}

func (t *RemoteTrack) ReadRTP() (*rtp.Packet, interceptor.Attributes, error) {
	return nil, nil, io.EOF
}
