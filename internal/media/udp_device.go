package media

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Source is an RTP feed on a local UDP address, e.g. ffmpeg's rtp:// output.
// An empty Addr means the source is absent.
type Source struct {
	Addr     string `mapstructure:"addr"`
	MimeType string `mapstructure:"mime_type"`
}

type UDPConfig struct {
	Audio       Source `mapstructure:"audio"`
	Video       Source `mapstructure:"video"`
	Screen      Source `mapstructure:"screen"`
	ScreenAudio Source `mapstructure:"screen_audio"`
	// IdleTimeout ends a display track after this long without packets.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// UDPDevice is a Device backed by RTP packets received over UDP.
type UDPDevice struct {
	self domain.UserID
	cfg  UDPConfig
}

func NewUDPDevice(self domain.UserID, cfg UDPConfig) *UDPDevice {
	return &UDPDevice{self: self, cfg: cfg}
}

func (d *UDPDevice) GetUserMedia(ctx context.Context, c Constraints) (*Stream, error) {
	if c.Audio == nil && c.Video == nil {
		return nil, errors.New("at least one of audio and video must be requested")
	}
	if c.Audio != nil && d.cfg.Audio.Addr == "" {
		return nil, fmt.Errorf("%w: microphone", ErrNotFound)
	}
	if c.Video != nil && d.cfg.Video.Addr == "" {
		return nil, fmt.Errorf("%w: camera", ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamID := domain.StreamID(d.self)
	var tracks []*Track
	if c.Audio != nil {
		t, err := d.open(d.cfg.Audio, webrtc.MimeTypeOpus, streamID, "microphone", 0)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	if c.Video != nil {
		t, err := d.open(d.cfg.Video, webrtc.MimeTypeVP8, streamID, "camera", 0)
		if err != nil {
			NewStream(streamID, tracks...).Stop()
			return nil, err
		}
		tracks = append(tracks, t)
		log.Debug().Str("module", "media").Int("width", c.Video.Width).Int("height", c.Video.Height).
			Int("fps", c.Video.FrameRate).Msg("camera opened")
	}
	return NewStream(streamID, tracks...), nil
}

func (d *UDPDevice) GetDisplayMedia(ctx context.Context, c DisplayConstraints) (*Stream, error) {
	if d.cfg.Screen.Addr == "" {
		return nil, fmt.Errorf("%w: display", ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	streamID := domain.ScreenStreamID(d.self)
	video, err := d.open(d.cfg.Screen, webrtc.MimeTypeVP8, streamID, "screen", d.cfg.IdleTimeout)
	if err != nil {
		return nil, err
	}
	tracks := []*Track{video}
	if c.Audio && d.cfg.ScreenAudio.Addr != "" {
		audio, err := d.open(d.cfg.ScreenAudio, webrtc.MimeTypeOpus, streamID, "system-audio", d.cfg.IdleTimeout)
		if err != nil {
			log.Warn().Err(err).Str("module", "media").Msg("system audio unavailable, sharing video only")
		} else {
			tracks = append(tracks, audio)
		}
	}
	return NewStream(streamID, tracks...), nil
}

func (d *UDPDevice) open(src Source, defaultMime, streamID, label string, idle time.Duration) (*Track, error) {
	mime := src.MimeType
	if mime == "" {
		mime = defaultMime
	}
	conn, err := net.ListenPacket("udp", src.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotReadable, label, err)
	}
	t, err := NewTrack(webrtc.RTPCodecCapability{MimeType: mime}, uuid.NewString(), streamID, label)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	t.setRelease(func() { _ = conn.Close() })
	go pumpRTP(conn, t, idle)
	return t, nil
}

// pumpRTP reads RTP packets from conn and writes them into the track until
// the track stops or the source goes away.
func pumpRTP(conn net.PacketConn, t *Track, idle time.Duration) {
	logger := log.With().Str("module", "media").Str("track", t.Label()).Str("addr", conn.LocalAddr().String()).Logger()
	logger.Info().Msg("source listening")

	buf := make([]byte, 1500)
	for {
		if idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if !t.Live() {
				return
			}
			logger.Info().Err(err).Msg("source ended")
			t.End()
			return
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			logger.Debug().Err(err).Msg("dropping non-RTP datagram")
			continue
		}
		if err := t.WriteRTP(&pkt); err != nil && !errors.Is(err, ErrTrackEnded) {
			logger.Debug().Err(err).Msg("write rtp")
		}
	}
}
