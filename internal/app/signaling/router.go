// Package signaling routes peer-addressed WebRTC signals between the meeting
// channel and the peer connection registry.
package signaling

import (
	"context"
	"fmt"

	"github.com/codinglabe/believe-app-sub028/internal/app/peers"
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Self          domain.UserID
	Meeting       domain.MeetingID
	Peers         *peers.Registry
	Channel       core.SignalChannel
	// OnScreenShare observes screen-share-start/stop announcements.
	OnScreenShare func(from domain.UserID, sharing bool)
}

type Router struct {
	self          domain.UserID
	meeting       domain.MeetingID
	peers         *peers.Registry
	channel       core.SignalChannel
	onScreenShare func(domain.UserID, bool)
}

func NewRouter(cfg Config) *Router {
	return &Router{
		self:          cfg.Self,
		meeting:       cfg.Meeting,
		peers:         cfg.Peers,
		channel:       cfg.Channel,
		onScreenShare: cfg.OnScreenShare,
	}
}

// HandleInboundSignal processes one inbound signal. Failures are logged and
// never propagate to the caller, so one bad message cannot affect the next.
func (r *Router) HandleInboundSignal(ctx context.Context, sig core.Signal) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.SignalsDropped.WithLabelValues("failed").Inc()
			log.Error().Str("module", "app.signaling").Str("type", string(sig.Type)).Str("from", string(sig.From)).Interface("panic", rec).Msg("signal handler panicked")
		}
	}()

	if sig.From == r.self || (sig.To != "" && sig.To != r.self) {
		metrics.SignalsDropped.WithLabelValues("not_addressed").Inc()
		return
	}
	if err := sig.Validate(); err != nil {
		metrics.SignalsDropped.WithLabelValues("invalid").Inc()
		log.Warn().Err(err).Str("module", "app.signaling").Str("from", string(sig.From)).Msg("invalid signal")
		return
	}
	metrics.SignalsReceived.WithLabelValues(string(sig.Type)).Inc()

	if err := r.dispatch(ctx, sig); err != nil {
		metrics.SignalsDropped.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("module", "app.signaling").Str("type", string(sig.Type)).Str("from", string(sig.From)).Msg("signal failed")
	}
}

func (r *Router) dispatch(ctx context.Context, sig core.Signal) error {
	switch sig.Type {
	case core.SignalScreenShareStart, core.SignalScreenShareStop:
		log.Info().Str("module", "app.signaling").Str("from", string(sig.From)).Str("type", string(sig.Type)).Msg("screen share announcement")
		if r.onScreenShare != nil {
			r.onScreenShare(sig.From, sig.Type == core.SignalScreenShareStart)
		}
		return nil
	}

	e, _, err := r.peers.CreateOrGet(sig.From)
	if err != nil {
		return err
	}
	switch sig.Type {
	case core.SignalOffer:
		return r.handleOffer(ctx, e, *sig.Offer)
	case core.SignalAnswer:
		if err := e.SetRemoteDescription(*sig.Answer); err != nil {
			return fmt.Errorf("apply answer: %w", err)
		}
		return nil
	case core.SignalICECandidate:
		if err := e.AddICECandidate(*sig.Candidate); err != nil {
			return fmt.Errorf("add candidate: %w", err)
		}
		if n := e.PendingCandidates(); n > 0 {
			log.Debug().Str("module", "app.signaling").Str("peer", string(sig.From)).Int("pending", n).Msg("candidate queued")
		}
		return nil
	}
	return nil
}

func (r *Router) handleOffer(ctx context.Context, e *peers.Entry, offer webrtc.SessionDescription) error {
	conn := e.Conn()
	if err := e.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("apply offer: %w", err)
	}
	answer, err := conn.CreateAnswer()
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := conn.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local answer: %w", err)
	}
	return r.SendSignal(ctx, core.Signal{
		Type:   core.SignalAnswer,
		From:   r.self,
		To:     e.Peer,
		Answer: &answer,
	})
}

// SendSignal whispers sig on the meeting channel. Delivery is not acknowledged.
func (r *Router) SendSignal(ctx context.Context, sig core.Signal) error {
	if sig.From == "" {
		sig.From = r.self
	}
	if err := r.channel.Whisper(ctx, r.meeting.Channel(), core.SignalEvent, sig); err != nil {
		return fmt.Errorf("whisper %s: %w", sig.Type, err)
	}
	log.Debug().Str("module", "app.signaling").Str("type", string(sig.Type)).Str("to", string(sig.To)).Msg("signal sent")
	return nil
}
