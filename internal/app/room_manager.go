package app

import (
	"sort"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/core"
)

type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[string]core.RoomService
}

func NewRoomManager() core.RoomManager {
	return &RoomManagerImpl{rooms: make(map[string]core.RoomService)}
}

func (f *RoomManagerImpl) Get(name string) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

func (f *RoomManagerImpl) List() []core.RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(f.rooms))
	for name, r := range f.rooms {
		out = append(out, core.RoomInfo{Name: name, MemberCount: r.MemberCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Join holds the write lock across create and add so a concurrent
// StopRoomIfEmpty cannot drop the room between the two.
func (f *RoomManagerImpl) Join(name string, s core.Subscriber) core.RoomService {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok {
		room = core.NewRoomService(name)
		f.rooms[name] = room
	}
	room.AddMember(s)
	return room
}

func (f *RoomManagerImpl) StopRoomIfEmpty(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[name]
	if !ok || room.MemberCount() > 0 {
		return false
	}
	delete(f.rooms, name)
	return true
}
