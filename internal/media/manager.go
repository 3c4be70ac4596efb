package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type PermissionState string

const (
	PermissionUnrequested PermissionState = "unrequested"
	PermissionRequesting  PermissionState = "requesting"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
	PermissionPartial     PermissionState = "partial"
)

var ErrPermissionDenied = errors.New("camera and microphone unavailable")

// Strategy is one acquisition attempt in the fallback chain.
type Strategy struct {
	Name        string
	Constraints Constraints
	// Grants is the permission state reached when this strategy succeeds.
	Grants      PermissionState
}

// DefaultStrategies tries audio+video first, then audio alone.
func DefaultStrategies(video VideoConstraints, audio AudioConstraints) []Strategy {
	return []Strategy{
		{
			Name:        "audio+video",
			Constraints: Constraints{Audio: &audio, Video: &video},
			Grants:      PermissionGranted,
		},
		{
			Name:        "audio-only",
			Constraints: Constraints{Audio: &audio},
			Grants:      PermissionPartial,
		},
	}
}

type Attempt struct {
	Strategy string
	Err      error
}

type Outcome struct {
	State    PermissionState
	Stream   *Stream
	Attempts []Attempt
}

// Manager owns the local media stream and the original camera track.
type Manager struct {
	device     Device
	strategies []Strategy
	display    DisplayConstraints

	mu       sync.Mutex
	state    PermissionState
	stream   *Stream
	original *Track
	inflight chan struct{}
}

func NewManager(device Device, strategies []Strategy, display DisplayConstraints) *Manager {
	return &Manager{
		device:     device,
		strategies: strategies,
		display:    display,
		state:      PermissionUnrequested,
	}
}

// RequestPermissions runs the strategy chain until one succeeds. It is safe to
// call repeatedly; an existing stream is returned as is, and a concurrent
// caller waits for the request already in flight.
func (m *Manager) RequestPermissions(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	if m.stream != nil {
		out := Outcome{State: m.state, Stream: m.stream}
		m.mu.Unlock()
		return out, nil
	}
	if wait := m.inflight; wait != nil {
		m.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return Outcome{State: PermissionRequesting}, ctx.Err()
		}
		m.mu.Lock()
		out := Outcome{State: m.state, Stream: m.stream}
		m.mu.Unlock()
		if out.Stream == nil {
			return out, ErrPermissionDenied
		}
		return out, nil
	}
	done := make(chan struct{})
	m.inflight = done
	m.state = PermissionRequesting
	m.mu.Unlock()

	out := Outcome{State: PermissionDenied}
	var lastErr error
	for _, s := range m.strategies {
		stream, err := m.device.GetUserMedia(ctx, s.Constraints)
		out.Attempts = append(out.Attempts, Attempt{Strategy: s.Name, Err: err})
		if err == nil {
			out.State = s.Grants
			out.Stream = stream
			break
		}
		lastErr = err
		log.Warn().Err(err).Str("module", "media").Str("strategy", s.Name).Msg("acquisition failed")
		if ctx.Err() != nil {
			break
		}
	}

	m.mu.Lock()
	m.state = out.State
	m.stream = out.Stream
	m.original = nil
	if out.Stream != nil {
		if vt := out.Stream.VideoTracks(); len(vt) > 0 {
			m.original = vt[0]
		}
	}
	m.inflight = nil
	close(done)
	m.mu.Unlock()

	log.Info().Str("module", "media").Str("permission", string(out.State)).Msg("permissions resolved")
	if out.Stream == nil {
		if lastErr == nil {
			return out, ErrPermissionDenied
		}
		return out, fmt.Errorf("%w: %w", ErrPermissionDenied, lastErr)
	}
	return out, nil
}

// AcquireDisplay requests a screen capture stream.
func (m *Manager) AcquireDisplay(ctx context.Context) (*Stream, error) {
	return m.device.GetDisplayMedia(ctx, m.display)
}

// Release stops every local track and forgets the stream.
func (m *Manager) Release() {
	m.mu.Lock()
	stream := m.stream
	m.stream = nil
	m.original = nil
	if m.inflight == nil {
		m.state = PermissionUnrequested
	}
	m.mu.Unlock()
	if stream != nil {
		stream.Stop()
	}
}

func (m *Manager) State() PermissionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Stream() *Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// OriginalVideoTrack is the camera track captured at grant time.
func (m *Manager) OriginalVideoTrack() *Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.original
}

func (m *Manager) AudioTrack() *Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	if at := m.stream.AudioTracks(); len(at) > 0 {
		return at[0]
	}
	return nil
}

func (m *Manager) VideoTrack() *Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	if vt := m.stream.VideoTracks(); len(vt) > 0 {
		return vt[0]
	}
	return nil
}
