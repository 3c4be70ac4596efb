package config

import (
	"errors"
	"fmt"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/rtc"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/media"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var ErrMissing = errors.New("missing required setting")

type MediaConfig struct {
	media.UDPConfig `mapstructure:",squash"`

	Camera     media.VideoConstraints `mapstructure:"camera"`
	Processing media.AudioConstraints `mapstructure:"audio_processing"`
	Display    media.VideoConstraints `mapstructure:"display"`
}

// AgentConfig is the call agent configuration.
type AgentConfig struct {
	rtc.Config `mapstructure:",squash"`

	MeetingID   domain.MeetingID `mapstructure:"meeting_id"`
	UserID      domain.UserID    `mapstructure:"user_id"`
	Role        domain.Role      `mapstructure:"role"`
	APIURL      string           `mapstructure:"api_url"`
	WSURL       string           `mapstructure:"ws_url"`
	Media       MediaConfig      `mapstructure:"media"`
	RecordDir   string           `mapstructure:"record_dir"`
	Record      bool             `mapstructure:"record"`
	ScreenShare bool             `mapstructure:"screen_share"`
	LogLevel    string           `mapstructure:"log_level"`
}

func LoadAgent(args []string) (*AgentConfig, error) {
	v := newViper("callagent")

	v.SetDefault("role", string(domain.RoleParticipant))
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("ws_url", "ws://localhost:8080/app/local")
	v.SetDefault("record_dir", "./recordings")
	v.SetDefault("log_level", "info")
	v.SetDefault("port_min", 0)
	v.SetDefault("port_max", 0)
	for _, src := range []string{"audio", "video", "screen", "screen_audio"} {
		v.SetDefault("media."+src+".addr", "")
		v.SetDefault("media."+src+".mime_type", "")
	}
	v.SetDefault("media.idle_timeout", "5s")
	cam := media.DefaultCamera()
	v.SetDefault("media.camera.width", cam.Width)
	v.SetDefault("media.camera.height", cam.Height)
	v.SetDefault("media.camera.frame_rate", cam.FrameRate)
	proc := media.DefaultAudio()
	v.SetDefault("media.audio_processing.echo_cancellation", proc.EchoCancellation)
	v.SetDefault("media.audio_processing.noise_suppression", proc.NoiseSuppression)
	v.SetDefault("media.audio_processing.auto_gain_control", proc.AutoGainControl)
	disp := media.DefaultDisplay().Video
	v.SetDefault("media.display.width", disp.Width)
	v.SetDefault("media.display.height", disp.Height)
	v.SetDefault("media.display.frame_rate", disp.FrameRate)

	fs := pflag.NewFlagSet("callagent", pflag.ContinueOnError)
	fs.String("meeting_id", "", "meeting to join")
	fs.String("user_id", "", "local participant id")
	fs.String("role", string(domain.RoleParticipant), "host or participant")
	fs.String("api_url", "http://localhost:8080", "meeting API base URL")
	fs.String("ws_url", "ws://localhost:8080/app/local", "pusher websocket URL")
	fs.Bool("record", false, "record remote tracks while the call is active")
	fs.Bool("screen_share", false, "share the screen source once the call is active")
	fs.String("log_level", "info", "zerolog level")

	if err := read(v, fs, args); err != nil {
		return nil, err
	}

	var cfg AgentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("meeting", string(cfg.MeetingID)).Str("user", string(cfg.UserID)).Msg("agent config")
	return &cfg, nil
}

func (c *AgentConfig) validate() error {
	if c.MeetingID == "" {
		return fmt.Errorf("%w: meeting_id", ErrMissing)
	}
	id, err := domain.ParseUserID(string(c.UserID))
	if err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	c.UserID = id
	if !c.Role.Valid() {
		return fmt.Errorf("invalid role %q", c.Role)
	}
	return nil
}
