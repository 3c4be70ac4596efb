package orch

import (
	"context"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/media"
	"github.com/rs/zerolog/log"
)

// ToggleAudio flips the local microphone and returns the new value. The
// backend is told on a best-effort basis; failure there keeps the local state.
func (o *Orchestrator) ToggleAudio(ctx context.Context) (bool, error) {
	t := o.media.AudioTrack()
	if t == nil {
		return false, ErrNoAudioTrack
	}
	enabled := o.toggle(t)
	o.mu.Lock()
	o.audioEnabled = enabled
	joined := o.joined
	o.mu.Unlock()
	o.notify()

	if joined {
		if err := o.api.SetAudio(ctx, o.meeting, enabled); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Bool("audio_enabled", enabled).Msg("sync audio state")
		}
	}
	return enabled, nil
}

// ToggleVideo flips the local camera and returns the new value.
func (o *Orchestrator) ToggleVideo(ctx context.Context) (bool, error) {
	t := o.media.VideoTrack()
	if t == nil {
		return false, ErrNoVideoTrack
	}
	enabled := o.toggle(t)
	o.mu.Lock()
	o.videoEnabled = enabled
	joined := o.joined
	o.mu.Unlock()
	o.notify()

	if joined {
		if err := o.api.SetVideo(ctx, o.meeting, enabled); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Bool("video_enabled", enabled).Msg("sync video state")
		}
	}
	return enabled, nil
}

func (o *Orchestrator) toggle(t *media.Track) bool {
	enabled := !t.Enabled()
	t.SetEnabled(enabled)
	log.Info().Str("module", "app.orch").Str("kind", t.Kind().String()).Bool("enabled", enabled).Msg("local track toggled")
	return enabled
}

func (o *Orchestrator) onRemoteTrack(peer domain.UserID, track core.RemoteTrack) {
	if o.recorder != nil {
		go o.recorder.Consume(peer, track)
	} else {
		go drain(track)
	}
}

// drain reads a remote track until it ends; pion stalls unread tracks.
func drain(track core.RemoteTrack) {
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			return
		}
	}
}

// StartRecording begins writing remote media to disk.
func (o *Orchestrator) StartRecording() (string, error) {
	if o.recorder == nil {
		return "", ErrNoRecorder
	}
	if o.state() != StateActive {
		return "", ErrNotActive
	}
	id, err := o.recorder.Start()
	if err != nil {
		return "", err
	}
	o.notify()
	return id, nil
}

// StopRecording ends the recording and returns its length.
func (o *Orchestrator) StopRecording() (time.Duration, error) {
	if o.recorder == nil {
		return 0, ErrNoRecorder
	}
	d, err := o.recorder.Stop()
	o.notify()
	return d, err
}

func (o *Orchestrator) RecordingElapsed() time.Duration {
	if o.recorder == nil {
		return 0
	}
	return o.recorder.Elapsed()
}
