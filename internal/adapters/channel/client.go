// Package channel is a Pusher protocol client implementing core.SignalChannel.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrClosed        = errors.New("channel connection closed")
	ErrBackpressure  = errors.New("backpressure")
	ErrNotSubscribed = errors.New("not subscribed")
	ErrHandshake     = errors.New("pusher handshake failed")
)

type Config struct {
	URL              string
	User             domain.UserID
	// PingPeriod is how often a pusher:ping is sent; zero means 30s.
	PingPeriod       time.Duration
	// HandshakeTimeout bounds the wait for connection_established.
	HandshakeTimeout time.Duration
}

type subscription struct {
	handlers core.Handlers
	ready    chan struct{}
	acked    bool
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	socketID string

	mu     sync.RWMutex
	subs   map[string]*subscription
	closed bool
	done   chan struct{}
}

// Dial connects and waits for pusher:connection_established.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	header := http.Header{}
	if cfg.User != "" {
		header.Set("X-User-ID", string(cfg.User))
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	timeout := cfg.HandshakeTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	_ = ws.SetReadDeadline(time.Now().Add(timeout))
	var m pusher.Message
	if err := ws.ReadJSON(&m); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	var est pusher.ConnectionEstablished
	if m.Event != pusher.EventConnectionEstablished || m.DecodeData(&est) != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("%w: unexpected %q", ErrHandshake, m.Event)
	}
	_ = ws.SetReadDeadline(time.Time{})

	c := &Client{
		conn:     ws,
		send:     make(chan []byte, 64),
		socketID: est.SocketID,
		subs:     make(map[string]*subscription),
		done:     make(chan struct{}),
	}
	ping := cfg.PingPeriod
	if ping == 0 {
		ping = 30 * time.Second
	}
	go c.writePump(ping)
	go c.readPump()
	log.Info().Str("module", "adapters.channel").Str("socket_id", c.socketID).Msg("connected")
	return c, nil
}

func (c *Client) SocketID() string { return c.socketID }

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Subscribe joins channel and waits for the server's acknowledgement.
func (c *Client) Subscribe(ctx context.Context, channel string, h core.Handlers) error {
	sub := &subscription{handlers: h, ready: make(chan struct{})}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.subs[channel] = sub
	c.mu.Unlock()

	if err := c.write(pusher.EventSubscribe, "", pusher.Subscribe{Channel: channel}); err != nil {
		c.drop(channel, sub)
		return err
	}
	select {
	case <-sub.ready:
		log.Info().Str("module", "adapters.channel").Str("channel", channel).Msg("subscribed")
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		c.drop(channel, sub)
		return ctx.Err()
	}
}

func (c *Client) drop(channel string, sub *subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[channel] == sub {
		delete(c.subs, channel)
	}
}

func (c *Client) Unsubscribe(channel string) error {
	c.mu.Lock()
	_, ok := c.subs[channel]
	delete(c.subs, channel)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return c.write(pusher.EventUnsubscribe, "", pusher.Subscribe{Channel: channel})
}

// Whisper sends a client event to the other subscribers of channel.
func (c *Client) Whisper(_ context.Context, channel, event string, payload any) error {
	c.mu.RLock()
	sub, ok := c.subs[channel]
	acked := ok && sub.acked
	c.mu.RUnlock()
	if !acked {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, channel)
	}
	return c.write(pusher.ClientEventPrefix+event, channel, payload)
}

func (c *Client) write(event, channel string, v any) error {
	b, err := pusher.Encode(event, channel, v)
	if err != nil {
		return err
	}
	return c.trySend(b)
}

func (c *Client) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	close(c.done)
	c.mu.Unlock()
	_ = c.conn.Close()
	log.Info().Str("module", "adapters.channel").Str("socket_id", c.socketID).Msg("closed")
}

func (c *Client) handlers(channel string) (core.Handlers, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sub, ok := c.subs[channel]
	if !ok {
		return core.Handlers{}, false
	}
	return sub.handlers, true
}

type userEvent struct {
	User domain.User `json:"user"`
}

// dispatch runs on the read goroutine, so handlers see one channel's events
// in arrival order.
func (c *Client) dispatch(m pusher.Message) {
	switch m.Event {
	case pusher.EventPing:
		_ = c.write(pusher.EventPong, "", map[string]any{})
		return
	case pusher.EventPong:
		return
	case pusher.EventSubscriptionSucceeded:
		c.mu.Lock()
		if sub, ok := c.subs[m.Channel]; ok && !sub.acked {
			sub.acked = true
			close(sub.ready)
		}
		c.mu.Unlock()
		return
	case pusher.EventError:
		var e pusher.ErrorData
		_ = m.DecodeData(&e)
		log.Warn().Str("module", "adapters.channel").Int("code", e.Code).Str("message", e.Message).Msg("server error")
		return
	}

	h, ok := c.handlers(m.Channel)
	if !ok {
		return
	}
	switch event := pusher.BaseEvent(m.Event); event {
	case pusher.EventParticipantJoined, pusher.EventParticipantLeft:
		var ev userEvent
		if err := m.DecodeData(&ev); err != nil {
			log.Warn().Err(err).Str("module", "adapters.channel").Str("event", event).Msg("bad structural event")
			return
		}
		if event == pusher.EventParticipantJoined && h.OnParticipantJoined != nil {
			h.OnParticipantJoined(ev.User)
		}
		if event == pusher.EventParticipantLeft && h.OnParticipantLeft != nil {
			h.OnParticipantLeft(ev.User)
		}
	case pusher.ClientEventPrefix + core.SignalEvent:
		var sig core.Signal
		if err := m.DecodeData(&sig); err != nil {
			log.Warn().Err(err).Str("module", "adapters.channel").Msg("bad signal payload")
			return
		}
		if h.OnSignal != nil {
			h.OnSignal(sig)
		}
	default:
		log.Debug().Str("module", "adapters.channel").Str("event", m.Event).Msg("unhandled event")
	}
}

func (c *Client) readPump() {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.RLock()
			closed := c.closed
			c.mu.RUnlock()
			if !closed {
				log.Error().Err(err).Str("module", "adapters.channel").Msg("readPump read error")
			}
			return
		}
		var m pusher.Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "adapters.channel").Msg("bad json")
			continue
		}
		c.dispatch(m)
	}
}

func (c *Client) writePump(ping time.Duration) {
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.channel").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.channel").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.write(pusher.EventPing, "", map[string]any{}); err != nil {
				return
			}
		}
	}
}
