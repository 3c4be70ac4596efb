package rtc

import (
	"testing"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/pion/webrtc/v4"
)

func newPair(t *testing.T) (core.MediaConnection, core.MediaConnection) {
	t.Helper()
	api, err := NewAPI(Config{ICEServers: []ICEServer{}})
	if err != nil {
		t.Fatalf("NewAPI: %v", err)
	}
	a, err := api.NewConnection("1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := api.NewConnection("2")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func localTrack(t *testing.T, mime, id string) *webrtc.TrackLocalStaticRTP {
	t.Helper()
	tr, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: mime}, id, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestOfferAnswer(t *testing.T) {
	a, b := newPair(t)
	if _, err := a.AddTrack(localTrack(t, webrtc.MimeTypeOpus, "audio")); err != nil {
		t.Fatalf("add audio: %v", err)
	}
	if _, err := a.AddTrack(localTrack(t, webrtc.MimeTypeVP8, "video")); err != nil {
		t.Fatalf("add video: %v", err)
	}

	offer, err := a.CreateOffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SetLocalDescription(offer); err != nil {
		t.Fatal(err)
	}
	if err := b.SetRemoteDescription(offer); err != nil {
		t.Fatalf("remote offer: %v", err)
	}
	answer, err := b.CreateAnswer()
	if err != nil {
		t.Fatal(err)
	}
	if answer.Type != webrtc.SDPTypeAnswer {
		t.Fatalf("answer type = %s", answer.Type)
	}
	if err := b.SetLocalDescription(answer); err != nil {
		t.Fatal(err)
	}
	if err := a.SetRemoteDescription(answer); err != nil {
		t.Fatalf("remote answer: %v", err)
	}

	if n := len(a.Senders()); n != 2 {
		t.Fatalf("offerer senders = %d, want 2", n)
	}
}

func TestReplaceTrack(t *testing.T) {
	a, _ := newPair(t)
	camera := localTrack(t, webrtc.MimeTypeVP8, "camera")
	if _, err := a.AddTrack(camera); err != nil {
		t.Fatal(err)
	}
	screen := localTrack(t, webrtc.MimeTypeVP8, "screen")

	var video core.Sender
	for _, s := range a.Senders() {
		if s.Kind() == webrtc.RTPCodecTypeVideo {
			video = s
		}
	}
	if video == nil {
		t.Fatal("no video sender")
	}
	if err := video.ReplaceTrack(screen); err != nil {
		t.Fatalf("ReplaceTrack: %v", err)
	}
	if a.Senders()[0].Track() != screen {
		t.Fatal("screen not on sender")
	}
	if err := video.ReplaceTrack(camera); err != nil {
		t.Fatal(err)
	}
	if len(a.Senders()) != 1 || a.Senders()[0].Track() != camera {
		t.Fatal("camera not restored on the same sender")
	}
}

func TestDefaultICEServers(t *testing.T) {
	servers := DefaultICEServers()
	if len(servers) != 2 {
		t.Fatalf("servers = %v", servers)
	}
	for _, s := range servers {
		for _, u := range s.URLs {
			if u[:5] != "stun:" {
				t.Fatalf("unexpected non-STUN server %s", u)
			}
		}
	}
}
