package media

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func freeUDPAddr(t *testing.T) string {
	t.Helper()
	c, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := c.LocalAddr().String()
	_ = c.Close()
	return addr
}

func TestUDPDeviceMissingCamera(t *testing.T) {
	d := NewUDPDevice("1", UDPConfig{Audio: Source{Addr: freeUDPAddr(t)}})
	video := DefaultCamera()
	audio := DefaultAudio()
	_, err := d.GetUserMedia(context.Background(), Constraints{Audio: &audio, Video: &video})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	s, err := d.GetUserMedia(context.Background(), Constraints{Audio: &audio})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()
	if len(s.AudioTracks()) != 1 || len(s.VideoTracks()) != 0 {
		t.Fatalf("unexpected tracks: %d audio, %d video", len(s.AudioTracks()), len(s.VideoTracks()))
	}
	if s.ID != "user-1" {
		t.Fatalf("stream id = %s", s.ID)
	}
}

func TestUDPDeviceBusyPort(t *testing.T) {
	c, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	d := NewUDPDevice("1", UDPConfig{Audio: Source{Addr: c.LocalAddr().String()}})
	audio := DefaultAudio()
	if _, err := d.GetUserMedia(context.Background(), Constraints{Audio: &audio}); !errors.Is(err, ErrNotReadable) {
		t.Fatalf("expected ErrNotReadable, got %v", err)
	}
}

func TestUDPDeviceDisplayIdleEnds(t *testing.T) {
	d := NewUDPDevice("1", UDPConfig{
		Screen:      Source{Addr: freeUDPAddr(t)},
		IdleTimeout: 50 * time.Millisecond,
	})
	s, err := d.GetDisplayMedia(context.Background(), DefaultDisplay())
	if err != nil {
		t.Fatal(err)
	}
	ended := make(chan struct{})
	s.VideoTracks()[0].OnEnded(func() { close(ended) })
	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("idle display source did not end")
	}
}
