package core

import (
	"context"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// MeetingAPI is the request/response surface of the meeting backend.
type MeetingAPI interface {
	// Join registers local presence; an error means the call attempt failed.
	Join(ctx context.Context, id domain.MeetingID) error
	Leave(ctx context.Context, id domain.MeetingID) error
	SetAudio(ctx context.Context, id domain.MeetingID, enabled bool) error
	SetVideo(ctx context.Context, id domain.MeetingID, enabled bool) error
}
