package peers

import (
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// RemoteStream groups the remote tracks received under one stream id.
type RemoteStream struct {
	ID     string
	Peer   domain.UserID
	Tracks []core.RemoteTrack
}

// StreamSet is the ordered, deduplicated set of remote streams.
type StreamSet struct {
	mu      sync.RWMutex
	order   []string
	byID    map[string]*RemoteStream
	onAdded func(RemoteStream)
}

func NewStreamSet() *StreamSet {
	return &StreamSet{byID: make(map[string]*RemoteStream)}
}

// OnAdded sets a callback for streams seen for the first time.
func (s *StreamSet) OnAdded(fn func(RemoteStream)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAdded = fn
}

// Add records a track. It reports whether its stream was new.
func (s *StreamSet) Add(peer domain.UserID, track core.RemoteTrack) bool {
	id := track.StreamID()
	s.mu.Lock()
	if rs, ok := s.byID[id]; ok {
		rs.Tracks = append(rs.Tracks, track)
		s.mu.Unlock()
		return false
	}
	rs := &RemoteStream{ID: id, Peer: peer, Tracks: []core.RemoteTrack{track}}
	s.byID[id] = rs
	s.order = append(s.order, id)
	cb := s.onAdded
	snap := copyStream(rs)
	s.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
	return true
}

// RemoveOwnedBy drops every stream received from peer or named after it.
func (s *StreamSet) RemoveOwnedBy(peer domain.UserID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		rs := s.byID[id]
		if rs.Peer == peer || domain.OwnsStream(peer, id) {
			delete(s.byID, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

func (s *StreamSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.byID = make(map[string]*RemoteStream)
}

func (s *StreamSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Snapshot returns the streams in insertion order.
func (s *StreamSet) Snapshot() []RemoteStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RemoteStream, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copyStream(s.byID[id]))
	}
	return out
}

func copyStream(rs *RemoteStream) RemoteStream {
	return RemoteStream{ID: rs.ID, Peer: rs.Peer, Tracks: append([]core.RemoteTrack(nil), rs.Tracks...)}
}
