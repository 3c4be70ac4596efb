package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// fakeServer acks subscriptions, then pushes a join and a signal.
func fakeServer(t *testing.T, received chan<- pusher.Message) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-ID") != "1" {
			t.Errorf("user header = %q", r.Header.Get("X-User-ID"))
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		send := func(b []byte, err error) {
			if err != nil {
				t.Errorf("encode: %v", err)
				return
			}
			_ = ws.WriteMessage(websocket.TextMessage, b)
		}
		send(pusher.EncodeString(pusher.EventConnectionEstablished, "", pusher.ConnectionEstablished{SocketID: "1.1", ActivityTimeout: 120}))
		for {
			var m pusher.Message
			if err := ws.ReadJSON(&m); err != nil {
				return
			}
			switch m.Event {
			case pusher.EventSubscribe:
				var s pusher.Subscribe
				_ = m.DecodeData(&s)
				send(pusher.Encode(pusher.EventSubscriptionSucceeded, s.Channel, map[string]any{}))
				send(pusher.EncodeString(`App\Events\`+pusher.EventParticipantJoined, s.Channel, map[string]any{"user": map[string]any{"id": 5}}))
				send(pusher.Encode("client-"+core.SignalEvent, s.Channel, core.Signal{
					Type:  core.SignalOffer,
					From:  "5",
					To:    "1",
					Offer: &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
				}))
			case pusher.EventPing:
				send(pusher.Encode(pusher.EventPong, "", map[string]any{}))
			default:
				received <- m
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSubscribeAndEvents(t *testing.T) {
	received := make(chan pusher.Message, 8)
	url := fakeServer(t, received)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, Config{URL: url, User: "1"})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	if c.SocketID() != "1.1" {
		t.Fatalf("socket id = %q", c.SocketID())
	}

	joined := make(chan domain.User, 1)
	signals := make(chan core.Signal, 1)
	err = c.Subscribe(ctx, "meeting.42", core.Handlers{
		OnParticipantJoined: func(u domain.User) { joined <- u },
		OnSignal:            func(s core.Signal) { signals <- s },
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case u := <-joined:
		if u.ID != "5" {
			t.Fatalf("joined user = %q", u.ID)
		}
	case <-ctx.Done():
		t.Fatal("no join event")
	}
	select {
	case s := <-signals:
		if s.Type != core.SignalOffer || s.From != "5" || s.Offer == nil {
			t.Fatalf("signal = %+v", s)
		}
	case <-ctx.Done():
		t.Fatal("no signal")
	}

	out := core.Signal{Type: core.SignalAnswer, From: "1", To: "5", Answer: &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"}}
	if err := c.Whisper(ctx, "meeting.42", core.SignalEvent, out); err != nil {
		t.Fatalf("Whisper: %v", err)
	}
	select {
	case m := <-received:
		if m.Event != "client-webrtc-signal" || m.Channel != "meeting.42" {
			t.Fatalf("server got %s on %s", m.Event, m.Channel)
		}
		var s core.Signal
		if err := json.Unmarshal(m.Data, &s); err != nil || s.To != "5" {
			t.Fatalf("payload %s: %v", m.Data, err)
		}
	case <-ctx.Done():
		t.Fatal("server did not receive the whisper")
	}

	if err := c.Whisper(ctx, "meeting.7", core.SignalEvent, out); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("err = %v, want ErrNotSubscribed", err)
	}

	if err := c.Unsubscribe("meeting.42"); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-received:
		if m.Event != pusher.EventUnsubscribe {
			t.Fatalf("server got %s", m.Event)
		}
	case <-ctx.Done():
		t.Fatal("no unsubscribe")
	}

	c.Close()
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
	if err := c.Whisper(ctx, "meeting.42", core.SignalEvent, out); err == nil {
		t.Fatal("whisper after close succeeded")
	}
}

func TestHandshakeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteJSON(pusher.Message{Event: pusher.EventError})
		_, _, _ = ws.ReadMessage()
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http"), HandshakeTimeout: time.Second})
	if !errors.Is(err, ErrHandshake) {
		t.Fatalf("err = %v, want ErrHandshake", err)
	}
}

func TestSubscribeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		b, _ := pusher.EncodeString(pusher.EventConnectionEstablished, "", pusher.ConnectionEstablished{SocketID: "2.2"})
		_ = ws.WriteMessage(websocket.TextMessage, b)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c, err := Dial(context.Background(), Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.Subscribe(ctx, "meeting.1", core.Handlers{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline", err)
	}
	if err := c.Whisper(context.Background(), "meeting.1", "x", nil); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("err = %v", err)
	}
}
