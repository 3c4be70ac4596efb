// Package meetingapi is the HTTP client for the meeting backend's join,
// leave and media-state endpoints.
package meetingapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// UserHeader carries the caller's identity; the hub has no other auth.
const UserHeader = "X-User-ID"

var ErrStatus = errors.New("meeting api returned an error status")

type Client struct {
	http *resty.Client
}

func New(baseURL string, user domain.UserID, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader(UserHeader, string(user)).
		SetTimeout(timeout)
	return &Client{http: c}
}

func (c *Client) Join(ctx context.Context, id domain.MeetingID) error {
	return c.post(ctx, id, "join", map[string]any{})
}

func (c *Client) Leave(ctx context.Context, id domain.MeetingID) error {
	return c.post(ctx, id, "leave", map[string]any{})
}

func (c *Client) SetAudio(ctx context.Context, id domain.MeetingID, enabled bool) error {
	return c.post(ctx, id, "audio", map[string]bool{"audio_enabled": enabled})
}

func (c *Client) SetVideo(ctx context.Context, id domain.MeetingID, enabled bool) error {
	return c.post(ctx, id, "video", map[string]bool{"video_enabled": enabled})
}

func (c *Client) post(ctx context.Context, id domain.MeetingID, action string, body any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", string(id)).
		SetBody(body).
		Post("/meetings/{id}/" + action)
	if err != nil {
		return fmt.Errorf("%s meeting %s: %w", action, id, err)
	}
	if res.IsError() {
		log.Warn().Str("module", "adapters.meetingapi").Str("action", action).Int("status", res.StatusCode()).Msg("request rejected")
		return fmt.Errorf("%w: %s %s", ErrStatus, action, res.Status())
	}
	log.Debug().Str("module", "adapters.meetingapi").Str("action", action).Str("meeting", string(id)).Msg("request ok")
	return nil
}
