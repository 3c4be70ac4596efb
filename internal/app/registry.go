package app

import (
	"context"
	"sort"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/rs/zerolog/log"
)

type socketEntry struct {
	Sub      core.Subscriber
	Channels map[string]struct{}
	Cancel   context.CancelFunc
}

// Registry tracks connected hub sockets and the channels each subscribed to.
type Registry struct {
	mu      sync.RWMutex
	sockets map[core.SocketID]*socketEntry
}

func NewRegistry() *Registry {
	return &Registry{sockets: make(map[core.SocketID]*socketEntry)}
}

func (r *Registry) Bind(sub core.Subscriber, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sockets[sub.ID()] = &socketEntry{
		Sub:      sub,
		Channels: make(map[string]struct{}),
		Cancel:   cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sub.ID())).Str("user", string(sub.User())).Msg("bound socket")
}

func (r *Registry) Get(id core.SocketID) (core.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sockets[id]; ok {
		return e.Sub, true
	}
	return nil, false
}

// Unbind forgets the socket and returns the channels it was subscribed to.
func (r *Registry) Unbind(id core.SocketID) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sockets[id]
	if !ok {
		return nil, false
	}
	delete(r.sockets, id)
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("unbind socket")
	return channelList(e.Channels), true
}

func (r *Registry) AddChannel(id core.SocketID, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sockets[id]
	if !ok {
		return false
	}
	e.Channels[channel] = struct{}{}
	return true
}

func (r *Registry) RemoveChannel(id core.SocketID, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sockets[id]; ok {
		delete(e.Channels, channel)
	}
}

func (r *Registry) ChannelsOf(id core.SocketID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sockets[id]
	if !ok {
		return nil
	}
	return channelList(e.Channels)
}

// SocketsOfUser counts the live sockets a user holds.
func (r *Registry) SocketsOfUser(u domain.UserID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.sockets {
		if e.Sub.User() == u {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sockets)
}

func (r *Registry) Cancel(id core.SocketID) bool {
	r.mu.RLock()
	e, ok := r.sockets[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(id)).Msg("canceled socket")
	return true
}

func channelList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}
