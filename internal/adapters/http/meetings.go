package http

import (
	"net/http"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/codinglabe/believe-app-sub028/internal/adapters/signal"
	"github.com/codinglabe/believe-app-sub028/internal/app"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/gin-gonic/gin"
)

type meetingHandlers struct {
	hub    *app.Hub
	signal *signal.SignalWSController
}

type JoinRequest struct {
	Role domain.Role `json:"role"`
}

type AudioRequest struct {
	AudioEnabled *bool `json:"audio_enabled" binding:"required"`
}

type VideoRequest struct {
	VideoEnabled *bool `json:"video_enabled" binding:"required"`
}

type MeetingResponse struct {
	ID           domain.MeetingID     `json:"id"`
	Channel      string               `json:"channel"`
	Participants []domain.Participant `json:"participants"`
}

func caller(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString("client_token"))
}

func meetingID(c *gin.Context) domain.MeetingID {
	return domain.MeetingID(c.Param("id"))
}

func (h *meetingHandlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"meetings": h.hub.Meetings.List()})
}

func (h *meetingHandlers) show(c *gin.Context) {
	id := meetingID(c)
	c.JSON(http.StatusOK, MeetingResponse{
		ID:           id,
		Channel:      id.Channel(),
		Participants: h.hub.Meetings.Participants(id),
	})
}

// join registers presence and announces it on the meeting channel. Joining
// twice is not an error and is announced once.
func (h *meetingHandlers) join(c *gin.Context) {
	var req JoinRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}
	id := meetingID(c)
	p, created := h.hub.JoinMeeting(id, domain.User{ID: caller(c)}, req.Role)
	if created {
		h.signal.BroadcastEvent(id.Channel(), pusher.EventParticipantJoined, signal.ParticipantEvent{User: p.User})
	}
	c.JSON(http.StatusOK, gin.H{"participant": p})
}

func (h *meetingHandlers) leave(c *gin.Context) {
	id := meetingID(c)
	user := caller(c)
	if !h.hub.LeaveMeeting(id, user) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a participant"})
		return
	}
	h.signal.BroadcastEvent(id.Channel(), pusher.EventParticipantLeft, signal.ParticipantEvent{User: domain.User{ID: user}})
	c.Status(http.StatusNoContent)
}

func (h *meetingHandlers) audio(c *gin.Context) {
	var req AudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid audio_enabled"})
		return
	}
	p, ok := h.hub.Meetings.SetAudio(meetingID(c), caller(c), *req.AudioEnabled)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p})
}

func (h *meetingHandlers) video(c *gin.Context) {
	var req VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid video_enabled"})
		return
	}
	p, ok := h.hub.Meetings.SetVideo(meetingID(c), caller(c), *req.VideoEnabled)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not a participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p})
}
