package core

import (
	"context"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// Handlers receive the two message classes of a meeting channel.
// Nil handlers are skipped.
type Handlers struct {
	// Structural events, server-authoritative.
	OnParticipantJoined func(domain.User)
	OnParticipantLeft   func(domain.User)
	// Ephemeral client-originated peer signals.
	OnSignal            func(Signal)
}

// SignalChannel abstracts the room-scoped pub/sub transport.
// Owned by the adapter; the adapter must Close() it.
type SignalChannel interface {
	Subscribe(ctx context.Context, channel string, h Handlers) error
	Unsubscribe(channel string) error
	// Whisper sends a non-persisted client event to the other subscribers.
	Whisper(ctx context.Context, channel, event string, payload any) error
	Close()
}
