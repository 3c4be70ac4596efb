package peers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Entry is the registry's record of one remote participant.
type Entry struct {
	Peer domain.UserID
	conn core.MediaConnection

	mu        sync.Mutex
	remoteSet bool
	pending   []webrtc.ICECandidateInit
	senders   []core.Sender
}

func (e *Entry) Conn() core.MediaConnection { return e.conn }

// SetRemoteDescription applies sd and flushes candidates that arrived early.
func (e *Entry) SetRemoteDescription(sd webrtc.SessionDescription) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.conn.SetRemoteDescription(sd); err != nil {
		return err
	}
	e.remoteSet = true
	pending := e.pending
	e.pending = nil
	var errs []error
	for _, c := range pending {
		if err := e.conn.AddICECandidate(c); err != nil {
			errs = append(errs, fmt.Errorf("queued candidate: %w", err))
		}
	}
	return errors.Join(errs...)
}

// AddICECandidate adds c now, or queues it until a remote description exists.
func (e *Entry) AddICECandidate(c webrtc.ICECandidateInit) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.remoteSet {
		e.pending = append(e.pending, c)
		return nil
	}
	return e.conn.AddICECandidate(c)
}

// PendingCandidates is the number of candidates waiting for a remote description.
func (e *Entry) PendingCandidates() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// VideoSenders returns the outbound video senders of the connection.
func (e *Entry) VideoSenders() []core.Sender {
	var out []core.Sender
	for _, s := range e.conn.Senders() {
		if s.Kind() == webrtc.RTPCodecTypeVideo {
			out = append(out, s)
		}
	}
	return out
}

// LocalSenders are the senders created for the attached local tracks.
func (e *Entry) LocalSenders() []core.Sender {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.Sender(nil), e.senders...)
}

func (e *Entry) State() webrtc.PeerConnectionState { return e.conn.ConnectionState() }

func (e *Entry) ICEState() webrtc.ICEConnectionState { return e.conn.ICEConnectionState() }
