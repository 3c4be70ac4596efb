// Package orch drives the call lifecycle of the local participant.
package orch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/app/peers"
	"github.com/codinglabe/believe-app-sub028/internal/app/signaling"
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/media"
	"github.com/rs/zerolog/log"
)

var (
	ErrCallActive     = errors.New("call already in progress")
	ErrNotActive      = errors.New("call is not active")
	ErrJoinFailed     = errors.New("join meeting failed")
	ErrSubscribe      = errors.New("subscribe to meeting channel failed")
	ErrNoAudioTrack   = errors.New("no local audio track")
	ErrNoVideoTrack   = errors.New("no local video track")
	ErrAlreadySharing = errors.New("screen share already active")
	ErrNoRecorder     = errors.New("recording not configured")
	ErrCallEnded      = errors.New("call ended while starting")
)

type Config struct {
	Meeting domain.MeetingID
	Self    domain.UserID
	Role    domain.Role
}

type Deps struct {
	Media    *media.Manager
	Channel  core.SignalChannel
	API      core.MeetingAPI
	Factory  peers.Factory
	// Recorder is optional; without it remote tracks are only drained.
	Recorder *media.Recorder
}

type Orchestrator struct {
	meeting domain.MeetingID
	self    domain.UserID
	role    domain.Role

	media    *media.Manager
	channel  core.SignalChannel
	api      core.MeetingAPI
	recorder *media.Recorder

	Peers  *peers.Registry
	Router *signaling.Router

	mu                sync.Mutex
	status            Status
	connection        string
	connected         bool
	audioEnabled      bool
	videoEnabled      bool
	sharing           bool
	screen            *media.Stream
	sharingPeers      map[domain.UserID]struct{}
	listenersAttached bool
	joined            bool
	callCtx           context.Context
	cancel            context.CancelFunc
	observers         []func(Session)

	// shareMu serializes screen share start and stop.
	shareMu sync.Mutex
}

func New(cfg Config, deps Deps) *Orchestrator {
	o := &Orchestrator{
		meeting:      cfg.Meeting,
		self:         cfg.Self,
		role:         cfg.Role,
		media:        deps.Media,
		channel:      deps.Channel,
		api:          deps.API,
		recorder:     deps.Recorder,
		status:       Status{State: StateIdle},
		sharingPeers: make(map[domain.UserID]struct{}),
	}
	o.Peers = peers.NewRegistry(peers.Config{
		Factory: deps.Factory,
		Local:   o.media.Stream,
		Hooks: peers.Hooks{
			OnRemoteTrack:     o.onRemoteTrack,
			OnLocalCandidate:  o.onLocalCandidate,
			OnConnectionState: o.onConnectionState,
		},
	})
	o.Peers.Streams().OnAdded(func(peers.RemoteStream) { o.notify() })
	o.Router = signaling.NewRouter(signaling.Config{
		Self:          cfg.Self,
		Meeting:       cfg.Meeting,
		Peers:         o.Peers,
		Channel:       deps.Channel,
		OnScreenShare: o.onRemoteScreenShare,
	})
	return o
}

// OnChange registers fn to receive a snapshot after every session change.
func (o *Orchestrator) OnChange(fn func(Session)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Session {
	s := Session{
		Meeting:       o.meeting,
		Self:          o.self,
		Role:          o.role,
		Permission:    o.media.State(),
		Status:        o.status,
		Connection:    o.connection,
		Connected:     o.connected,
		AudioEnabled:  o.audioEnabled,
		VideoEnabled:  o.videoEnabled,
		ScreenSharing: o.sharing,
		Peers:         o.Peers.Len(),
		RemoteStreams: o.Peers.Streams().Len(),
	}
	if o.recorder != nil {
		s.Recording = o.recorder.Active()
	}
	for id := range o.sharingPeers {
		s.SharingPeers = append(s.SharingPeers, id)
	}
	return s
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	snap := o.snapshotLocked()
	observers := append([]func(Session){}, o.observers...)
	o.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

func (o *Orchestrator) setStatus(state State, detail string) {
	o.mu.Lock()
	prev := o.status.State
	o.status = Status{State: state, Detail: detail}
	o.mu.Unlock()
	logTransition(prev, state, detail)
	o.notify()
}

func logTransition(prev, state State, detail string) {
	if prev != state {
		log.Info().Str("module", "app.orch").Str("from", string(prev)).Str("to", string(state)).Str("detail", detail).Msg("state changed")
	}
}

func (o *Orchestrator) state() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.State
}

// ctx is the context of the current call, or a background context outside one.
func (o *Orchestrator) ctx() context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.callCtx == nil {
		return context.Background()
	}
	return o.callCtx
}

// Prepare requests camera and microphone ahead of a call.
func (o *Orchestrator) Prepare(ctx context.Context) (media.Outcome, error) {
	o.mu.Lock()
	if o.status.State.busy() {
		o.mu.Unlock()
		return media.Outcome{}, ErrCallActive
	}
	o.mu.Unlock()
	return o.acquire(ctx)
}

func (o *Orchestrator) acquire(ctx context.Context) (media.Outcome, error) {
	o.setStatus(StateRequesting, "")
	out, err := o.media.RequestPermissions(ctx)

	detail := ""
	switch out.State {
	case media.PermissionPartial:
		detail = "camera unavailable, joining with audio only"
	case media.PermissionDenied:
		detail = "camera and microphone unavailable"
	}
	o.mu.Lock()
	o.audioEnabled = trackEnabled(o.media.AudioTrack())
	o.videoEnabled = out.State == media.PermissionGranted && trackEnabled(o.media.VideoTrack())
	o.mu.Unlock()
	o.setStatus(StatePermissionsResolved, detail)
	return out, err
}

func trackEnabled(t *media.Track) bool {
	return t != nil && t.Enabled()
}

// StartCall acquires media if needed, subscribes to the meeting channel and
// joins the meeting. Any failure leaves the orchestrator in StateError with no
// peer connections.
func (o *Orchestrator) StartCall(ctx context.Context) error {
	o.mu.Lock()
	if o.status.State.busy() {
		o.mu.Unlock()
		return ErrCallActive
	}
	o.connection = ""
	o.connected = false
	o.mu.Unlock()

	if o.media.Stream() == nil && o.media.State() != media.PermissionGranted {
		if _, err := o.acquire(ctx); err != nil {
			o.setStatus(StateError, err.Error())
			return err
		}
	}

	o.setStatus(StateStarting, "connecting")
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.mu.Lock()
	o.callCtx, o.cancel = callCtx, cancel
	attached := o.listenersAttached
	o.mu.Unlock()

	if !attached {
		err := o.channel.Subscribe(ctx, o.meeting.Channel(), core.Handlers{
			OnParticipantJoined: o.handleParticipantJoined,
			OnParticipantLeft:   o.handleParticipantLeft,
			OnSignal: func(sig core.Signal) {
				o.Router.HandleInboundSignal(o.ctx(), sig)
			},
		})
		if err != nil {
			return o.abort(fmt.Errorf("%w: %w", ErrSubscribe, err))
		}
		o.mu.Lock()
		o.listenersAttached = true
		o.mu.Unlock()
	}

	joinErr := o.api.Join(ctx, o.meeting)

	o.mu.Lock()
	if o.callCtx != callCtx || callCtx.Err() != nil {
		// EndCall ran while joining. A newer call owns the channel and the
		// presence, if there is one.
		newer := o.callCtx != nil
		o.mu.Unlock()
		cancel()
		if !newer {
			o.detach()
			if joinErr == nil {
				if err := o.api.Leave(ctx, o.meeting); err != nil {
					log.Warn().Err(err).Str("module", "app.orch").Msg("leave after ended start")
				}
			}
		}
		return ErrCallEnded
	}
	if joinErr != nil {
		o.mu.Unlock()
		return o.abort(fmt.Errorf("%w: %w", ErrJoinFailed, joinErr))
	}
	o.joined = true
	prev := o.status.State
	o.status = Status{State: StateActive, Detail: "waiting for participants"}
	o.mu.Unlock()
	logTransition(prev, StateActive, "waiting for participants")
	o.notify()
	return nil
}

// abort unwinds a failed StartCall. Local media is kept so a retry does not
// prompt again.
func (o *Orchestrator) abort(err error) error {
	log.Error().Err(err).Str("module", "app.orch").Str("meeting", string(o.meeting)).Msg("start call failed")
	o.detach()
	o.Peers.CloseAll()
	o.Peers.Streams().Clear()
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.callCtx, o.cancel = nil, nil
	o.mu.Unlock()
	o.setStatus(StateError, err.Error())
	return err
}

func (o *Orchestrator) detach() {
	o.mu.Lock()
	attached := o.listenersAttached
	o.listenersAttached = false
	o.mu.Unlock()
	if !attached {
		return
	}
	if err := o.channel.Unsubscribe(o.meeting.Channel()); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("unsubscribe")
	}
}

// EndCall releases every call resource. It is safe from any state and may be
// called repeatedly.
func (o *Orchestrator) EndCall(ctx context.Context) {
	o.setStatus(StateEnding, "")

	if o.recorder != nil && o.recorder.Active() {
		if _, err := o.recorder.Stop(); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Msg("stop recording")
		}
	}

	o.shareMu.Lock()
	o.mu.Lock()
	screen := o.screen
	o.screen = nil
	o.sharing = false
	o.mu.Unlock()
	if screen != nil {
		screen.Stop()
	}
	o.shareMu.Unlock()

	o.media.Release()
	o.Peers.CloseAll()
	o.Peers.Streams().Clear()
	o.detach()

	o.mu.Lock()
	joined := o.joined
	o.joined = false
	cancel := o.cancel
	o.callCtx, o.cancel = nil, nil
	o.connected = false
	o.connection = ""
	o.audioEnabled = false
	o.videoEnabled = false
	o.sharingPeers = make(map[domain.UserID]struct{})
	o.mu.Unlock()

	if joined {
		if err := o.api.Leave(ctx, o.meeting); err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Str("meeting", string(o.meeting)).Msg("leave meeting")
		}
	}
	if cancel != nil {
		cancel()
	}
	o.setStatus(StateEnded, "")
}
