package peers

import (
	"fmt"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/media"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Factory builds the transport for a new remote participant.
type Factory func(peer domain.UserID) (core.MediaConnection, error)

// Hooks are the reactions wired into every new connection. Callbacks from
// connections that have since been removed are not delivered.
type Hooks struct {
	// OnRemoteTrack runs after the track's stream was recorded. New streams
	// are reported through StreamSet.OnAdded.
	OnRemoteTrack     func(peer domain.UserID, track core.RemoteTrack)
	OnLocalCandidate  func(peer domain.UserID, c webrtc.ICECandidateInit)
	OnConnectionState func(peer domain.UserID, s webrtc.PeerConnectionState)
}

type Config struct {
	Factory Factory
	// Local returns the stream whose tracks are attached to new connections.
	Local   func() *media.Stream
	Streams *StreamSet
	Hooks   Hooks
}

// Registry owns the peer connections, keyed by remote participant. It is the
// only component that inserts or deletes entries.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.UserID]*Entry

	factory Factory
	local   func() *media.Stream
	streams *StreamSet
	hooks   Hooks
}

func NewRegistry(cfg Config) *Registry {
	streams := cfg.Streams
	if streams == nil {
		streams = NewStreamSet()
	}
	return &Registry{
		entries: make(map[domain.UserID]*Entry),
		factory: cfg.Factory,
		local:   cfg.Local,
		streams: streams,
		hooks:   cfg.Hooks,
	}
}

func (r *Registry) Streams() *StreamSet { return r.streams }

// CreateOrGet returns the entry for peer, creating it on first use.
func (r *Registry) CreateOrGet(peer domain.UserID) (*Entry, bool, error) {
	r.mu.RLock()
	e, ok := r.entries[peer]
	r.mu.RUnlock()
	if ok {
		return e, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[peer]; ok {
		return e, false, nil
	}
	conn, err := r.factory(peer)
	if err != nil {
		return nil, false, fmt.Errorf("new peer connection for %s: %w", peer, err)
	}
	e = &Entry{Peer: peer, conn: conn}
	if r.local != nil {
		if s := r.local(); s != nil {
			for _, t := range s.Tracks() {
				sender, err := conn.AddTrack(t.Local())
				if err != nil {
					log.Error().Err(err).Str("module", "app.peers").Str("peer", string(peer)).Str("track", t.Label()).Msg("attach local track")
					continue
				}
				e.senders = append(e.senders, sender)
			}
		}
	}
	r.wire(e)
	r.entries[peer] = e
	metrics.PeerConnections.Inc()
	metrics.PeerConnectionsCreated.Inc()
	log.Info().Str("module", "app.peers").Str("peer", string(peer)).Int("local_tracks", len(e.senders)).Msg("peer connection created")
	return e, true, nil
}

func (r *Registry) wire(e *Entry) {
	peer := e.Peer
	e.conn.OnTrack(func(track core.RemoteTrack) {
		if !r.owns(e) {
			return
		}
		fresh := r.streams.Add(peer, track)
		log.Info().
			Str("module", "app.peers").
			Str("peer", string(peer)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Bool("new_stream", fresh).
			Msg("remote track received")
		if r.hooks.OnRemoteTrack != nil {
			r.hooks.OnRemoteTrack(peer, track)
		}
	})
	e.conn.OnICECandidate(func(c webrtc.ICECandidateInit) {
		if !r.owns(e) || r.hooks.OnLocalCandidate == nil {
			return
		}
		r.hooks.OnLocalCandidate(peer, c)
	})
	e.conn.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		metrics.PeerConnectionStates.WithLabelValues(s.String()).Inc()
		log.Info().Str("module", "app.peers").Str("peer", string(peer)).Str("peer_connection_state", s.String()).Msg("Peer state")
		if !r.owns(e) || r.hooks.OnConnectionState == nil {
			return
		}
		r.hooks.OnConnectionState(peer, s)
	})
	e.conn.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Debug().Str("module", "app.peers").Str("peer", string(peer)).Str("ice_state", s.String()).Msg("ICE state")
	})
}

func (r *Registry) owns(e *Entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[e.Peer] == e
}

func (r *Registry) Get(peer domain.UserID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[peer]
	return e, ok
}

// Remove closes and forgets the entry for peer. Unknown peers are ignored.
func (r *Registry) Remove(peer domain.UserID) {
	r.mu.Lock()
	e, ok := r.entries[peer]
	delete(r.entries, peer)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.close(e)
}

// CloseAll drains the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[domain.UserID]*Entry)
	r.mu.Unlock()
	for _, e := range entries {
		r.close(e)
	}
}

func (r *Registry) close(e *Entry) {
	metrics.PeerConnections.Dec()
	if err := e.conn.Close(); err != nil {
		log.Error().Err(err).Str("module", "app.peers").Str("peer", string(e.Peer)).Msg("close error")
		return
	}
	log.Info().Str("module", "app.peers").Str("peer", string(e.Peer)).Msg("peer connection closed")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) Snapshot() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}
