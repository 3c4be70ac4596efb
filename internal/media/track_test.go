package media

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

func TestTrackStopDoesNotNotify(t *testing.T) {
	tr := mustTrack(webrtc.MimeTypeVP8, "v")
	fired := 0
	tr.OnEnded(func() { fired++ })
	tr.Stop()
	tr.End()
	if fired != 0 {
		t.Fatalf("ended handler fired %d times after Stop", fired)
	}
	if tr.Live() {
		t.Fatal("stopped track is live")
	}
	select {
	case <-tr.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestTrackEndNotifiesOnce(t *testing.T) {
	tr := mustTrack(webrtc.MimeTypeVP8, "v")
	fired := 0
	tr.OnEnded(func() { fired++ })
	tr.End()
	tr.End()
	if fired != 1 {
		t.Fatalf("ended handler fired %d times, want 1", fired)
	}
}

func TestTrackWriteAfterEnd(t *testing.T) {
	tr := mustTrack(webrtc.MimeTypeOpus, "a")
	pkt := &rtp.Packet{Header: rtp.Header{Version: 2}, Payload: []byte{1}}
	tr.SetEnabled(false)
	if err := tr.WriteRTP(pkt); err != nil {
		t.Fatalf("muted write: %v", err)
	}
	tr.Stop()
	if err := tr.WriteRTP(pkt); err != ErrTrackEnded {
		t.Fatalf("expected ErrTrackEnded, got %v", err)
	}
}

func TestEndedHandlerMayStop(t *testing.T) {
	tr := mustTrack(webrtc.MimeTypeVP8, "v")
	s := NewStream("user-1-screen", tr)
	fired := 0
	tr.OnEnded(func() {
		fired++
		s.Stop()
	})
	tr.End()
	if fired != 1 || tr.Live() {
		t.Fatalf("fired=%d live=%v", fired, tr.Live())
	}
}
