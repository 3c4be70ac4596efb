package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/domain"
)

// inDir runs the test from a scratch directory so config/ lookups are isolated.
func inDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inDir(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" || cfg.PingPeriod != 54*time.Second {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.WhisperLimit != 50 || cfg.WhisperInterval != time.Second {
		t.Fatalf("whisper defaults: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := inDir(t)
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := "port: 9000\nmode: debug\nread_limit: 1024\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "meetingd.dev.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MEETING_READ_LIMIT", "2048")

	cfg, err := Load([]string{"--port", "9100"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Fatalf("flag did not win: port = %d", cfg.Port)
	}
	if cfg.Mode != "debug" {
		t.Fatalf("file value lost: mode = %q", cfg.Mode)
	}
	if cfg.ReadLimit != 2048 {
		t.Fatalf("env did not override file: read_limit = %d", cfg.ReadLimit)
	}
}

func TestLoadAgent(t *testing.T) {
	inDir(t)
	t.Setenv("MEETING_MEDIA_AUDIO_ADDR", "127.0.0.1:5004")
	cfg, err := LoadAgent([]string{"--meeting_id", "42", "--user_id", " 7 "})
	if err != nil {
		t.Fatalf("LoadAgent: %v", err)
	}
	if cfg.MeetingID != "42" || cfg.UserID != "7" || cfg.Role != domain.RoleParticipant {
		t.Fatalf("identity: %+v", cfg)
	}
	if !cfg.Media.Processing.EchoCancellation || cfg.Media.Camera.Width != 1280 {
		t.Fatalf("media defaults: %+v", cfg.Media)
	}
	if cfg.Media.UDPConfig.Audio.Addr != "127.0.0.1:5004" {
		t.Fatalf("audio addr = %q", cfg.Media.UDPConfig.Audio.Addr)
	}
	if cfg.Media.IdleTimeout != 5*time.Second {
		t.Fatalf("idle timeout = %v", cfg.Media.IdleTimeout)
	}
	if cfg.ICEServers != nil {
		t.Fatalf("ice servers defaulted: %+v", cfg.ICEServers)
	}
}

func TestLoadAgentRequiresIdentity(t *testing.T) {
	inDir(t)
	if _, err := LoadAgent(nil); !errors.Is(err, ErrMissing) {
		t.Fatalf("err = %v, want ErrMissing", err)
	}
	if _, err := LoadAgent([]string{"--meeting_id", "1"}); !errors.Is(err, domain.ErrUserIDEmpty) {
		t.Fatalf("err = %v, want ErrUserIDEmpty", err)
	}
	if _, err := LoadAgent([]string{"--meeting_id", "1", "--user_id", "2", "--role", "admin"}); err == nil {
		t.Fatalf("invalid role accepted")
	}
}
