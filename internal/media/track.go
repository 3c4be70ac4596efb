package media

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

var ErrTrackEnded = errors.New("track ended")

// Track is a local media track. It is shared, not copied, into every peer
// connection; toggling enabled is the only mutation other components make.
type Track struct {
	local *webrtc.TrackLocalStaticRTP
	label string

	enabled atomic.Bool
	ended   atomic.Bool

	mu      sync.Mutex
	onEnded []func()
	release func()
	done    chan struct{}
	once    sync.Once
}

func NewTrack(codec webrtc.RTPCodecCapability, id, streamID, label string) (*Track, error) {
	local, err := webrtc.NewTrackLocalStaticRTP(codec, id, streamID)
	if err != nil {
		return nil, err
	}
	t := &Track{
		local: local,
		label: label,
		done:  make(chan struct{}),
	}
	t.enabled.Store(true)
	return t, nil
}

func (t *Track) ID() string                { return t.local.ID() }
func (t *Track) StreamID() string          { return t.local.StreamID() }
func (t *Track) Kind() webrtc.RTPCodecType { return t.local.Kind() }
func (t *Track) Label() string             { return t.label }

// Local returns the pion track handed to senders.
func (t *Track) Local() webrtc.TrackLocal { return t.local }

func (t *Track) Enabled() bool     { return t.enabled.Load() }
func (t *Track) SetEnabled(v bool) { t.enabled.Store(v) }

// Live reports whether the track has neither been stopped nor ended.
func (t *Track) Live() bool { return !t.ended.Load() }

// Done is closed once the track is no longer live.
func (t *Track) Done() <-chan struct{} { return t.done }

// WriteRTP forwards a packet to every bound sender. A disabled track keeps
// its senders but drops the media.
func (t *Track) WriteRTP(pkt *rtp.Packet) error {
	if !t.Live() {
		return ErrTrackEnded
	}
	if !t.Enabled() {
		return nil
	}
	return t.local.WriteRTP(pkt)
}

// OnEnded registers fn to run when the source ends on its own.
// Handlers never run for an explicit Stop.
func (t *Track) OnEnded(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnded = append(t.onEnded, fn)
}

// Stop releases the source. Idempotent.
func (t *Track) Stop() { t.finish(false) }

// End marks the source as finished and notifies OnEnded handlers.
func (t *Track) End() { t.finish(true) }

func (t *Track) finish(notify bool) {
	first := false
	t.once.Do(func() {
		first = true
		t.ended.Store(true)
		close(t.done)

		t.mu.Lock()
		release := t.release
		t.mu.Unlock()
		if release != nil {
			release()
		}
	})
	if !first || !notify {
		return
	}
	// Handlers may stop the track again, so they run outside the once.
	t.mu.Lock()
	handlers := append([]func(){}, t.onEnded...)
	t.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

func (t *Track) setRelease(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release = fn
}
