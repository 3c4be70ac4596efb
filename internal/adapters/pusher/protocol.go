// Package pusher holds the wire format of the Pusher channels protocol, the
// one Laravel Echo and Reverb speak.
package pusher

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

const (
	EventConnectionEstablished = "pusher:connection_established"
	EventSubscribe             = "pusher:subscribe"
	EventUnsubscribe           = "pusher:unsubscribe"
	EventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
	EventPing                  = "pusher:ping"
	EventPong                  = "pusher:pong"
	EventError                 = "pusher:error"

	// ClientEventPrefix marks events relayed between subscribers without
	// being persisted.
	ClientEventPrefix = "client-"

	EventParticipantJoined = "ParticipantJoined"
	EventParticipantLeft   = "ParticipantLeft"
)

// Error codes sent in pusher:error.
const (
	CodeGeneric       = 4000
	CodeNotSubscribed = 4009
	CodeRateLimited   = 4301
)

var ErrNoData = errors.New("message has no data")

// Message is one protocol frame. Data is kept raw because servers send it
// either as an object or as a JSON-encoded string.
type Message struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type ConnectionEstablished struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

type Subscribe struct {
	Channel string `json:"channel"`
	Auth    string `json:"auth,omitempty"`
}

type ErrorData struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Encode builds a frame whose data is v marshalled as an object.
func Encode(event, channel string, v any) ([]byte, error) {
	var data json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Message{Event: event, Channel: channel, Data: data})
}

// EncodeString builds a frame whose data is v marshalled and then quoted,
// the way Pusher servers deliver broadcast events.
func EncodeString(event, channel string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	quoted, err := json.Marshal(string(b))
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Channel: channel, Data: quoted})
}

// DecodeData unmarshals the frame data into v, unwrapping a string payload.
func (m Message) DecodeData(v any) error {
	raw := bytes.TrimSpace(m.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ErrNoData
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, v)
}

// BaseEvent strips a broadcaster namespace, e.g. "App\Events\ParticipantJoined"
// or ".ParticipantJoined", down to "ParticipantJoined".
func BaseEvent(event string) string {
	if i := strings.LastIndexAny(event, `\.`); i >= 0 {
		return event[i+1:]
	}
	return event
}

// IsClientEvent reports whether event is relayed client to client.
func IsClientEvent(event string) bool {
	return strings.HasPrefix(event, ClientEventPrefix)
}
