package coretest

import (
	"context"
	"sync"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// API is a recording core.MeetingAPI.
type API struct {
	mu     sync.Mutex
	joins  int
	leaves int
	audio  []bool
	video  []bool

	JoinErr   error
	ToggleErr error

	// BeforeJoin, if set, runs at the start of Join without the lock held.
	BeforeJoin func()
}

func (a *API) Join(context.Context, domain.MeetingID) error {
	if a.BeforeJoin != nil {
		a.BeforeJoin()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.joins++
	return a.JoinErr
}

func (a *API) Leave(context.Context, domain.MeetingID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.leaves++
	return nil
}

func (a *API) SetAudio(_ context.Context, _ domain.MeetingID, enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audio = append(a.audio, enabled)
	return a.ToggleErr
}

func (a *API) SetVideo(_ context.Context, _ domain.MeetingID, enabled bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.video = append(a.video, enabled)
	return a.ToggleErr
}

func (a *API) Joins() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.joins
}

func (a *API) Leaves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.leaves
}

func (a *API) Audio() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.audio...)
}

func (a *API) Video() []bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]bool(nil), a.video...)
}
