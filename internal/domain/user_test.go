package domain

import (
	"encoding/json"
	"testing"
)

func TestUserIDUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want UserID
	}{
		{`{"id":42}`, "42"},
		{`{"id":"abc"}`, "abc"},
		{`{"id":null}`, ""},
	}
	for _, c := range cases {
		var u User
		if err := json.Unmarshal([]byte(c.in), &u); err != nil {
			t.Fatalf("unmarshal %s: %v", c.in, err)
		}
		if u.ID != c.want {
			t.Fatalf("unmarshal %s: got %q, want %q", c.in, u.ID, c.want)
		}
	}
}

func TestParseUserID(t *testing.T) {
	if _, err := ParseUserID("  "); err != ErrUserIDEmpty {
		t.Fatalf("expected ErrUserIDEmpty, got %v", err)
	}
	long := make([]byte, MaxUserIDLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := ParseUserID(string(long)); err != ErrUserIDTooLong {
		t.Fatalf("expected ErrUserIDTooLong, got %v", err)
	}
	id, err := ParseUserID(" 7 ")
	if err != nil || id != "7" {
		t.Fatalf("got %q, %v", id, err)
	}
}

func TestOwnsStream(t *testing.T) {
	if !OwnsStream("7", StreamID("7")) {
		t.Fatal("camera stream not owned")
	}
	if !OwnsStream("7", ScreenStreamID("7")) {
		t.Fatal("screen stream not owned")
	}
	if OwnsStream("7", StreamID("77")) {
		t.Fatal("user-77 must not belong to user 7")
	}
}
