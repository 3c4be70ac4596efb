package media

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
)

// fakeDevice grants only the kinds it is told it has.
type fakeDevice struct {
	mu       sync.Mutex
	hasAudio bool
	hasVideo bool
	calls    []Constraints
}

func (d *fakeDevice) GetUserMedia(_ context.Context, c Constraints) (*Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
	if c.Video != nil && !d.hasVideo {
		return nil, ErrNotFound
	}
	if c.Audio != nil && !d.hasAudio {
		return nil, ErrNotAllowed
	}
	var tracks []*Track
	if c.Audio != nil {
		tracks = append(tracks, mustTrack(webrtc.MimeTypeOpus, "a"))
	}
	if c.Video != nil {
		tracks = append(tracks, mustTrack(webrtc.MimeTypeVP8, "v"))
	}
	return NewStream("user-1", tracks...), nil
}

func (d *fakeDevice) GetDisplayMedia(context.Context, DisplayConstraints) (*Stream, error) {
	return nil, ErrNotAllowed
}

func mustTrack(mime, id string) *Track {
	t, err := NewTrack(webrtc.RTPCodecCapability{MimeType: mime}, id, "user-1", id)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestManager(d Device) *Manager {
	return NewManager(d, DefaultStrategies(DefaultCamera(), DefaultAudio()), DefaultDisplay())
}

func TestRequestPermissions(t *testing.T) {
	cases := []struct {
		name      string
		audio     bool
		video     bool
		want      PermissionState
		wantErr   bool
		wantVideo bool
	}{
		{"granted", true, true, PermissionGranted, false, true},
		{"audio fallback", true, false, PermissionPartial, false, false},
		{"denied", false, false, PermissionDenied, true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := newTestManager(&fakeDevice{hasAudio: c.audio, hasVideo: c.video})
			out, err := m.RequestPermissions(context.Background())
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
			if c.wantErr && !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("expected ErrPermissionDenied, got %v", err)
			}
			if out.State != c.want || m.State() != c.want {
				t.Fatalf("state = %s/%s, want %s", out.State, m.State(), c.want)
			}
			if (m.OriginalVideoTrack() != nil) != c.wantVideo {
				t.Fatalf("original video track presence mismatch")
			}
			if c.wantErr && m.Stream() != nil {
				t.Fatal("denied must not leave a stream")
			}
		})
	}
}

func TestRequestPermissionsIdempotent(t *testing.T) {
	d := &fakeDevice{hasAudio: true, hasVideo: true}
	m := newTestManager(d)
	first, err := m.RequestPermissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.RequestPermissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Stream != second.Stream {
		t.Fatal("second request must reuse the stream")
	}
	if len(d.calls) != 1 {
		t.Fatalf("device called %d times, want 1", len(d.calls))
	}
}

func TestRequestPermissionsRetryAfterDenied(t *testing.T) {
	d := &fakeDevice{}
	m := newTestManager(d)
	if _, err := m.RequestPermissions(context.Background()); err == nil {
		t.Fatal("expected denial")
	}
	d.hasAudio = true
	out, err := m.RequestPermissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.State != PermissionPartial {
		t.Fatalf("state = %s, want partial", out.State)
	}
}

func TestReleaseStopsTracks(t *testing.T) {
	m := newTestManager(&fakeDevice{hasAudio: true, hasVideo: true})
	out, err := m.RequestPermissions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	m.Release()
	m.Release()
	for _, tr := range out.Stream.Tracks() {
		if tr.Live() {
			t.Fatalf("track %s still live", tr.ID())
		}
	}
	if m.Stream() != nil || m.State() != PermissionUnrequested {
		t.Fatal("release must reset the manager")
	}
}
