package orch

import (
	"context"
	"fmt"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// handleParticipantJoined greets a newcomer with an offer. Only members that
// were already in the call offer, so two peers never race to offer each other.
func (o *Orchestrator) handleParticipantJoined(u domain.User) {
	if u.ID == "" || u.ID == o.self {
		return
	}
	if st := o.state(); st != StateStarting && st != StateActive {
		log.Debug().Str("module", "app.orch").Str("peer", string(u.ID)).Str("state", string(st)).Msg("participant joined ignored")
		return
	}
	log.Info().Str("module", "app.orch").Str("peer", string(u.ID)).Msg("participant joined")
	if err := o.CreateOfferForPeer(o.ctx(), u.ID); err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("peer", string(u.ID)).Msg("offer to new participant")
	}
}

func (o *Orchestrator) handleParticipantLeft(u domain.User) {
	if u.ID == "" || u.ID == o.self {
		return
	}
	o.Peers.Remove(u.ID)
	removed := o.Peers.Streams().RemoveOwnedBy(u.ID)
	o.mu.Lock()
	delete(o.sharingPeers, u.ID)
	o.mu.Unlock()
	log.Info().Str("module", "app.orch").Str("peer", string(u.ID)).Int("streams_removed", removed).Msg("participant left")
	o.notify()
}

// CreateOfferForPeer negotiates toward peer, creating its connection if needed.
func (o *Orchestrator) CreateOfferForPeer(ctx context.Context, peer domain.UserID) error {
	e, _, err := o.Peers.CreateOrGet(peer)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "app.orch").Str("peer", string(peer)).Int("senders", len(e.LocalSenders())).Msg("creating offer")
	conn := e.Conn()
	offer, err := conn.CreateOffer()
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := conn.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local offer: %w", err)
	}
	return o.Router.SendSignal(ctx, core.Signal{
		Type:  core.SignalOffer,
		From:  o.self,
		To:    peer,
		Offer: &offer,
	})
}

func (o *Orchestrator) onLocalCandidate(peer domain.UserID, c webrtc.ICECandidateInit) {
	err := o.Router.SendSignal(o.ctx(), core.Signal{
		Type:      core.SignalICECandidate,
		From:      o.self,
		To:        peer,
		Candidate: &c,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("peer", string(peer)).Msg("send candidate")
	}
}

func (o *Orchestrator) onConnectionState(peer domain.UserID, s webrtc.PeerConnectionState) {
	o.mu.Lock()
	o.connection = s.String()
	switch s {
	case webrtc.PeerConnectionStateConnected:
		o.connected = true
	case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
		o.connected = false
	}
	active := o.status.State == StateActive
	o.mu.Unlock()

	if active {
		o.setStatus(StateActive, fmt.Sprintf("%s: %s", peer, s))
		return
	}
	o.notify()
}

func (o *Orchestrator) onRemoteScreenShare(peer domain.UserID, sharing bool) {
	o.mu.Lock()
	if sharing {
		o.sharingPeers[peer] = struct{}{}
	} else {
		delete(o.sharingPeers, peer)
	}
	o.mu.Unlock()
	o.notify()
}
