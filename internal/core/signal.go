package core

import (
	"errors"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/webrtc/v4"
)

// SignalEvent is the whisper event name peer signals travel under.
const SignalEvent = "webrtc-signal"

type SignalType string

const (
	SignalOffer            SignalType = "offer"
	SignalAnswer           SignalType = "answer"
	SignalICECandidate     SignalType = "ice-candidate"
	SignalScreenShareStart SignalType = "screen-share-start"
	SignalScreenShareStop  SignalType = "screen-share-stop"
)

var ErrBadSignal = errors.New("malformed signal")

// Signal is the payload of a webrtc-signal whisper.
// An empty To addresses every participant of the room.
type Signal struct {
	Type      SignalType                 `json:"type"`
	From      domain.UserID              `json:"from"`
	To        domain.UserID              `json:"to,omitempty"`
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// Validate checks that the type-specific payload is present.
func (s Signal) Validate() error {
	if s.From == "" {
		return errors.Join(ErrBadSignal, errors.New("missing sender"))
	}
	switch s.Type {
	case SignalOffer:
		if s.Offer == nil || s.Offer.SDP == "" {
			return errors.Join(ErrBadSignal, errors.New("offer without sdp"))
		}
	case SignalAnswer:
		if s.Answer == nil || s.Answer.SDP == "" {
			return errors.Join(ErrBadSignal, errors.New("answer without sdp"))
		}
	case SignalICECandidate:
		if s.Candidate == nil {
			return errors.Join(ErrBadSignal, errors.New("missing candidate"))
		}
	case SignalScreenShareStart, SignalScreenShareStop:
	default:
		return errors.Join(ErrBadSignal, errors.New("unknown type "+string(s.Type)))
	}
	return nil
}
