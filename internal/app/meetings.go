package app

import (
	"sort"
	"sync"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/rs/zerolog/log"
)

type MeetingInfo struct {
	ID           domain.MeetingID `json:"id"`
	Participants int              `json:"participants"`
}

// Meetings is the in-memory presence store behind the join/leave endpoints.
type Meetings struct {
	mu   sync.RWMutex
	byID map[domain.MeetingID]map[domain.UserID]*domain.Participant
	now  func() time.Time
}

func NewMeetings() *Meetings {
	return &Meetings{
		byID: make(map[domain.MeetingID]map[domain.UserID]*domain.Participant),
		now:  time.Now,
	}
}

// Join registers u in the meeting. created is false when u was already present.
func (m *Meetings) Join(id domain.MeetingID, u domain.User, role domain.Role) (domain.Participant, bool) {
	if !role.Valid() {
		role = domain.RoleParticipant
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.byID[id]
	if !ok {
		members = make(map[domain.UserID]*domain.Participant)
		m.byID[id] = members
	}
	if p, ok := members[u.ID]; ok {
		return *p, false
	}
	p := &domain.Participant{
		User:         u,
		Role:         role,
		AudioEnabled: true,
		VideoEnabled: true,
		JoinedAt:     m.now(),
	}
	members[u.ID] = p
	metrics.Participants.Inc()
	log.Info().Str("module", "app.meetings").Str("meeting", string(id)).Str("user", string(u.ID)).Str("role", string(role)).Msg("participant joined")
	return *p, true
}

// Leave removes u. It reports whether u was present.
func (m *Meetings) Leave(id domain.MeetingID, u domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	members, ok := m.byID[id]
	if !ok {
		return false
	}
	if _, ok := members[u]; !ok {
		return false
	}
	delete(members, u)
	if len(members) == 0 {
		delete(m.byID, id)
	}
	metrics.Participants.Dec()
	log.Info().Str("module", "app.meetings").Str("meeting", string(id)).Str("user", string(u)).Msg("participant left")
	return true
}

func (m *Meetings) SetAudio(id domain.MeetingID, u domain.UserID, enabled bool) (domain.Participant, bool) {
	return m.update(id, u, func(p *domain.Participant) { p.AudioEnabled = enabled })
}

func (m *Meetings) SetVideo(id domain.MeetingID, u domain.UserID, enabled bool) (domain.Participant, bool) {
	return m.update(id, u, func(p *domain.Participant) { p.VideoEnabled = enabled })
}

func (m *Meetings) update(id domain.MeetingID, u domain.UserID, fn func(*domain.Participant)) (domain.Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id][u]
	if !ok {
		return domain.Participant{}, false
	}
	fn(p)
	return *p, true
}

// Participants lists the meeting's participants in join order.
func (m *Meetings) Participants(id domain.MeetingID) []domain.Participant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Participant, 0, len(m.byID[id]))
	for _, p := range m.byID[id] {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].User.ID < out[j].User.ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// MeetingsOf lists the meetings u is present in.
func (m *Meetings) MeetingsOf(u domain.UserID) []domain.MeetingID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.MeetingID
	for id, members := range m.byID {
		if _, ok := members[u]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Meetings) List() []MeetingInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MeetingInfo, 0, len(m.byID))
	for id, members := range m.byID {
		out = append(out, MeetingInfo{ID: id, Participants: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
