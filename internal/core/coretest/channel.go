package coretest

import (
	"context"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// Whisper is one recorded client event.
type Whisper struct {
	Channel string
	Event   string
	Payload any
}

// Channel is an in-memory core.SignalChannel that records whispers and lets
// tests deliver events to the subscribed handlers.
type Channel struct {
	mu         sync.Mutex
	handlers   map[string]core.Handlers
	subscribes int
	whispers   []Whisper
	closed     bool

	SubscribeErr error
	WhisperErr   error
}

func NewChannel() *Channel {
	return &Channel{handlers: make(map[string]core.Handlers)}
}

func (c *Channel) Subscribe(_ context.Context, channel string, h core.Handlers) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SubscribeErr != nil {
		return c.SubscribeErr
	}
	c.handlers[channel] = h
	c.subscribes++
	return nil
}

func (c *Channel) Unsubscribe(channel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, channel)
	return nil
}

func (c *Channel) Whisper(_ context.Context, channel, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WhisperErr != nil {
		return c.WhisperErr
	}
	c.whispers = append(c.whispers, Whisper{Channel: channel, Event: event, Payload: payload})
	return nil
}

func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Channel) Subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[channel]
	return ok
}

// Subscribes counts successful Subscribe calls.
func (c *Channel) Subscribes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribes
}

func (c *Channel) Whispers() []Whisper {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Whisper(nil), c.whispers...)
}

// Signals returns the whispered payloads that are signals, in order.
func (c *Channel) Signals() []core.Signal {
	var out []core.Signal
	for _, w := range c.Whispers() {
		if s, ok := w.Payload.(core.Signal); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Channel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.whispers = nil
}

func (c *Channel) handlersFor(channel string) core.Handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[channel]
}

// Join delivers a ParticipantJoined event on channel.
func (c *Channel) Join(channel string, u domain.User) {
	if h := c.handlersFor(channel); h.OnParticipantJoined != nil {
		h.OnParticipantJoined(u)
	}
}

// Leave delivers a ParticipantLeft event on channel.
func (c *Channel) Leave(channel string, u domain.User) {
	if h := c.handlersFor(channel); h.OnParticipantLeft != nil {
		h.OnParticipantLeft(u)
	}
}

// Deliver hands sig to the channel's signal handler.
func (c *Channel) Deliver(channel string, sig core.Signal) {
	if h := c.handlersFor(channel); h.OnSignal != nil {
		h.OnSignal(sig)
	}
}
