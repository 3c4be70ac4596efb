package pusher

import (
	"encoding/json"
	"errors"
	"testing"
)

type payload struct {
	User struct {
		ID json.Number `json:"id"`
	} `json:"user"`
}

func TestDecodeData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"object", `{"user":{"id":5}}`},
		{"string", `"{\"user\":{\"id\":5}}"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			if err := (Message{Data: json.RawMessage(tc.data)}).DecodeData(&p); err != nil {
				t.Fatalf("DecodeData: %v", err)
			}
			if p.User.ID != "5" {
				t.Fatalf("id = %s", p.User.ID)
			}
		})
	}
	if err := (Message{}).DecodeData(&payload{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestEncodeString(t *testing.T) {
	b, err := EncodeString(EventParticipantJoined, "meeting.1", map[string]any{"user": map[string]any{"id": 5}})
	if err != nil {
		t.Fatal(err)
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m.Data[0] != '"' {
		t.Fatalf("data not string encoded: %s", m.Data)
	}
	var p payload
	if err := m.DecodeData(&p); err != nil || p.User.ID != "5" {
		t.Fatalf("round trip: %v %+v", err, p)
	}
}

func TestBaseEvent(t *testing.T) {
	for in, want := range map[string]string{
		`App\Events\ParticipantLeft`: "ParticipantLeft",
		".ParticipantJoined":         "ParticipantJoined",
		"ParticipantJoined":          "ParticipantJoined",
	} {
		if got := BaseEvent(in); got != want {
			t.Fatalf("BaseEvent(%q) = %q, want %q", in, got, want)
		}
	}
}
