package media

import "github.com/pion/webrtc/v4"

type VideoConstraints struct {
	Width     int `mapstructure:"width"`
	Height    int `mapstructure:"height"`
	FrameRate int `mapstructure:"frame_rate"`
}

type AudioConstraints struct {
	EchoCancellation bool `mapstructure:"echo_cancellation"`
	NoiseSuppression bool `mapstructure:"noise_suppression"`
	AutoGainControl  bool `mapstructure:"auto_gain_control"`
}

// Constraints describes a user-media request. A nil member is not requested.
type Constraints struct {
	Audio *AudioConstraints
	Video *VideoConstraints
}

type DisplayConstraints struct {
	Video VideoConstraints
	// Audio asks for system audio when the source offers it.
	Audio bool
}

func DefaultCamera() VideoConstraints {
	return VideoConstraints{Width: 1280, Height: 720, FrameRate: 30}
}

func DefaultAudio() AudioConstraints {
	return AudioConstraints{EchoCancellation: true, NoiseSuppression: true, AutoGainControl: true}
}

func DefaultDisplay() DisplayConstraints {
	return DisplayConstraints{
		Video: VideoConstraints{Width: 1920, Height: 1080, FrameRate: 30},
		Audio: true,
	}
}

// Stream groups local tracks under one stream identifier.
type Stream struct {
	ID     string
	tracks []*Track
}

func NewStream(id string, tracks ...*Track) *Stream {
	return &Stream{ID: id, tracks: tracks}
}

func (s *Stream) Tracks() []*Track {
	return append([]*Track(nil), s.tracks...)
}

func (s *Stream) AudioTracks() []*Track { return s.byKind(webrtc.RTPCodecTypeAudio) }
func (s *Stream) VideoTracks() []*Track { return s.byKind(webrtc.RTPCodecTypeVideo) }

func (s *Stream) byKind(kind webrtc.RTPCodecType) []*Track {
	var out []*Track
	for _, t := range s.tracks {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// Stop stops every track of the stream.
func (s *Stream) Stop() {
	for _, t := range s.tracks {
		t.Stop()
	}
}
