package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/media"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var (
	errNoDisplayVideo = errors.New("display stream has no video track")
	ErrDisplayEnded   = errors.New("display source ended before sharing started")
)

// StartScreenShare swaps the outbound video of every peer to a display
// capture. Senders are reused, so no renegotiation happens.
func (o *Orchestrator) StartScreenShare(ctx context.Context) error {
	o.shareMu.Lock()
	defer o.shareMu.Unlock()

	o.mu.Lock()
	sharing, state := o.sharing, o.status.State
	o.mu.Unlock()
	if sharing {
		return ErrAlreadySharing
	}
	if state != StateActive {
		return ErrNotActive
	}

	screen, err := o.media.AcquireDisplay(ctx)
	if err != nil {
		return fmt.Errorf("acquire display: %w", err)
	}
	vt := screen.VideoTracks()
	if len(vt) == 0 {
		screen.Stop()
		return errNoDisplayVideo
	}
	display := vt[0]

	o.mu.Lock()
	o.screen = screen
	o.sharing = true
	o.mu.Unlock()

	// The source ending on its own is the native "stop sharing" control.
	display.OnEnded(func() {
		log.Info().Str("module", "app.orch").Msg("display source ended")
		o.stopScreenShare(o.ctx(), screen)
	})
	// A source that ended before the handler was attached never reports it.
	if !display.Live() {
		o.mu.Lock()
		o.screen = nil
		o.sharing = false
		o.mu.Unlock()
		screen.Stop()
		return ErrDisplayEnded
	}

	replaced := o.replaceVideo(display.Local())
	log.Info().Str("module", "app.orch").Int("senders", replaced).Msg("screen share started")

	if err := o.Router.SendSignal(ctx, core.Signal{Type: core.SignalScreenShareStart, From: o.self}); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("announce screen share")
	}
	o.notify()
	return nil
}

// StopScreenShare restores the camera on every peer. It is a no-op when
// nothing is being shared.
func (o *Orchestrator) StopScreenShare(ctx context.Context) error {
	o.mu.Lock()
	screen := o.screen
	o.mu.Unlock()
	if screen == nil {
		return nil
	}
	o.stopScreenShare(ctx, screen)
	return nil
}

// stopScreenShare stops screen only if it is still the current share.
func (o *Orchestrator) stopScreenShare(ctx context.Context, screen *media.Stream) {
	o.shareMu.Lock()
	defer o.shareMu.Unlock()

	o.mu.Lock()
	if o.screen != screen {
		o.mu.Unlock()
		return
	}
	o.screen = nil
	o.sharing = false
	o.mu.Unlock()

	screen.Stop()

	if camera := o.media.OriginalVideoTrack(); camera != nil && camera.Live() {
		replaced := o.replaceVideo(camera.Local())
		log.Info().Str("module", "app.orch").Int("senders", replaced).Msg("camera restored")
	}

	if err := o.Router.SendSignal(ctx, core.Signal{Type: core.SignalScreenShareStop, From: o.self}); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("announce screen share stop")
	}
	o.notify()
}

// replaceVideo puts track on every outbound video sender, one peer's
// failure not stopping the rest. It returns the number of senders swapped.
func (o *Orchestrator) replaceVideo(track webrtc.TrackLocal) int {
	n := 0
	for _, e := range o.Peers.Snapshot() {
		for _, s := range e.VideoSenders() {
			if err := s.ReplaceTrack(track); err != nil {
				log.Warn().Err(err).Str("module", "app.orch").Str("peer", string(e.Peer)).Msg("replace track")
				continue
			}
			n++
		}
	}
	return n
}
