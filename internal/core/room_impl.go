package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory channel.
// It never closes adapter-owned resources.
type roomImpl struct {
	name    string
	mu      sync.RWMutex
	members map[SocketID]Subscriber
}

func NewRoomService(name string) RoomService {
	return &roomImpl{
		name:    name,
		members: make(map[SocketID]Subscriber),
	}
}

func (r *roomImpl) Name() string { return r.name }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) HasMember(id SocketID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

func (r *roomImpl) AddMember(s Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[s.ID()] = s
	log.Info().Str("module", "core.room").Str("room", r.name).Str("sid", string(s.ID())).Str("user", string(s.User())).Msg("member added")
}

func (r *roomImpl) RemoveMember(id SocketID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	log.Info().Str("module", "core.room").Str("room", r.name).Str("sid", string(id)).Msg("member removed")
}

func (r *roomImpl) Broadcast(from SocketID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for id, m := range r.members {
		if from != "" && id == from {
			continue
		}
		if err := m.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", r.name).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
