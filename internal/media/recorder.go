package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/core"
	"github.com/codinglabe/believe-app-sub028/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/rs/zerolog/log"
)

var (
	ErrRecording    = errors.New("recording already in progress")
	ErrNotRecording = errors.New("not recording")
)

// Recorder writes remote tracks to disk while a recording is active.
// Opus goes to .ogg and VP8 to .ivf; other codecs are skipped.
type Recorder struct {
	dir string

	mu      sync.Mutex
	id      string
	started time.Time
	writers map[string]pionmedia.Writer
	now     func() time.Time
}

func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir, now: time.Now}
}

// Start opens a new recording and returns its identifier.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writers != nil {
		return "", ErrRecording
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create recording dir: %w", err)
	}
	r.started = r.now()
	r.id = r.started.Format("2006_01_02_15_04_05")
	r.writers = make(map[string]pionmedia.Writer)
	log.Info().Str("module", "media.recorder").Str("id", r.id).Str("dir", r.dir).Msg("recording started")
	return r.id, nil
}

// Stop closes every writer and returns the recording length.
func (r *Recorder) Stop() (time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writers == nil {
		return 0, ErrNotRecording
	}
	elapsed := r.now().Sub(r.started)
	var errs []error
	for key, w := range r.writers {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	r.writers = nil
	r.started = time.Time{}
	log.Info().Str("module", "media.recorder").Str("id", r.id).Dur("elapsed", elapsed).Msg("recording stopped")
	return elapsed, errors.Join(errs...)
}

func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writers != nil
}

// Elapsed is the running length of the active recording, zero when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writers == nil {
		return 0
	}
	return r.now().Sub(r.started)
}

// Consume drains a remote track until it ends. Packets are written only
// while a recording is active.
func (r *Recorder) Consume(peer domain.UserID, track core.RemoteTrack) {
	key := string(peer) + "_" + sanitize(track.ID())
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Str("module", "media.recorder").Str("track", key).Msg("remote track read")
			}
			return
		}
		r.write(key, track.Codec(), pkt)
	}
}

func (r *Recorder) write(key string, codec webrtc.RTPCodecParameters, pkt *rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writers == nil {
		return
	}
	w, ok := r.writers[key]
	if !ok {
		w = r.open(key, codec)
		r.writers[key] = w
	}
	if w == nil {
		return
	}
	if err := w.WriteRTP(pkt); err != nil {
		log.Error().Err(err).Str("module", "media.recorder").Str("track", key).Msg("write sample")
	}
}

func (r *Recorder) open(key string, codec webrtc.RTPCodecParameters) pionmedia.Writer {
	base := filepath.Join(r.dir, r.id+"_"+key)
	var (
		w    pionmedia.Writer
		err  error
		path string
	)
	switch {
	case strings.EqualFold(codec.MimeType, webrtc.MimeTypeOpus):
		path = base + ".ogg"
		w, err = oggwriter.New(path, 48000, 2)
	case strings.EqualFold(codec.MimeType, webrtc.MimeTypeVP8):
		path = base + ".ivf"
		w, err = ivfwriter.New(path)
	default:
		log.Warn().Str("module", "media.recorder").Str("mime", codec.MimeType).Msg("unsupported codec, not recording track")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("module", "media.recorder").Str("file", path).Msg("create file")
		return nil
	}
	log.Info().Str("module", "media.recorder").Str("file", path).Msg("recording track")
	return w
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
