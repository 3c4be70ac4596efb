// Package signal is the hub's websocket endpoint speaking the Pusher protocol.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/codinglabe/believe-app-sub028/internal/app"
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Hub        *app.Hub
	Limiter    *RoomRateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(hub *app.Hub, limiter *RoomRateLimiter, readLimit int64, ping time.Duration) *SignalWSController {
	if ping <= 0 {
		ping = 54 * time.Second
	}
	return &SignalWSController{
		Hub:        hub,
		Limiter:    limiter,
		ReadLimit:  readLimit,
		PingPeriod: ping,
	}
}

// WsSignalConn is one hub socket. It satisfies core.Subscriber.
type WsSignalConn struct {
	id   core.SocketID
	user domain.UserID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) ID() core.SocketID   { return c.id }
func (c *WsSignalConn) User() domain.UserID { return c.user }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// BroadcastEvent publishes a server event to a channel. Data goes out as a
// JSON string, as Pusher servers deliver it.
func (ctl *SignalWSController) BroadcastEvent(channel, event string, v any) int {
	b, err := pusher.EncodeString(event, channel, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("encode broadcast")
		return 0
	}
	metrics.StructuralEvents.WithLabelValues(event).Inc()
	return ctl.Hub.Publish(channel, b)
}

// ParticipantEvent is the payload of ParticipantJoined and ParticipantLeft.
type ParticipantEvent struct {
	User domain.User `json:"user"`
}

func (ctl *SignalWSController) BroadcastLeft(meetings []domain.MeetingID, u domain.UserID) {
	for _, m := range meetings {
		ctl.BroadcastEvent(m.Channel(), pusher.EventParticipantLeft, ParticipantEvent{User: domain.User{ID: u}})
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	user := domain.UserID(c.GetString("client_token"))
	sid := core.SocketID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(user)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		id:   sid,
		user: user,
		conn: ws,
		send: make(chan core.Frame, 64),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Hub.Connect(conn, cancel)

	established, err := pusher.EncodeString(pusher.EventConnectionEstablished, "", pusher.ConnectionEstablished{
		SocketID:        string(sid),
		ActivityTimeout: int(ctl.PingPeriod / time.Second),
	})
	if err == nil {
		_ = conn.TrySend(established)
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, conn)
}
