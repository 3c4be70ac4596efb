package rtc

import (
	"fmt"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/webrtc/v4"
)

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type Config struct {
	ICEServers []ICEServer `mapstructure:"ice_servers"`
	// PortMin and PortMax bound the local UDP ports; zero leaves them ephemeral.
	PortMin    uint16      `mapstructure:"port_min"`
	PortMax    uint16      `mapstructure:"port_max"`
}

// DefaultICEServers is the public STUN pair. No TURN relay is configured.
func DefaultICEServers() []ICEServer {
	return []ICEServer{
		{URLs: []string{"stun:stun.l.google.com:19302"}},
		{URLs: []string{"stun:stun1.l.google.com:19302"}},
	}
}

// API builds peer connections sharing one media engine and interceptor set.
type API struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

func NewAPI(cfg Config) (*API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, fmt.Errorf("failed to register default interceptors: %w", err)
	}
	pli, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, fmt.Errorf("failed to create PLI factory: %w", err)
	}
	interceptorRegistry.Add(pli)

	settings := webrtc.SettingEngine{LoggerFactory: NewLoggerFactory()}
	if cfg.PortMin != 0 || cfg.PortMax != 0 {
		if err := settings.SetEphemeralUDPPortRange(cfg.PortMin, cfg.PortMax); err != nil {
			return nil, fmt.Errorf("port range: %w", err)
		}
	}

	servers := cfg.ICEServers
	if servers == nil {
		servers = DefaultICEServers()
	}
	var ice []webrtc.ICEServer
	for _, s := range servers {
		ice = append(ice, webrtc.ICEServer{URLs: s.URLs, Username: s.Username, Credential: s.Credential})
	}

	return &API{
		api: webrtc.NewAPI(
			webrtc.WithMediaEngine(mediaEngine),
			webrtc.WithInterceptorRegistry(interceptorRegistry),
			webrtc.WithSettingEngine(settings),
		),
		cfg: webrtc.Configuration{ICEServers: ice},
	}, nil
}

// NewConnection satisfies the peer registry's factory signature.
func (a *API) NewConnection(peer domain.UserID) (core.MediaConnection, error) {
	pc, err := a.api.NewPeerConnection(a.cfg)
	if err != nil {
		return nil, err
	}
	return &Connection{pc: pc, peer: peer}, nil
}
