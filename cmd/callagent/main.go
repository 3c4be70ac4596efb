package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/channel"
	"github.com/codinglabe/believe-app-sub028/internal/adapters/meetingapi"
	"github.com/codinglabe/believe-app-sub028/internal/adapters/rtc"
	"github.com/codinglabe/believe-app-sub028/internal/app/orch"
	"github.com/codinglabe/believe-app-sub028/internal/config"
	"github.com/codinglabe/believe-app-sub028/internal/media"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.LoadAgent(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	api, err := rtc.NewAPI(cfg.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc setup")
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 15*time.Second)
	ch, err := channel.Dial(dialCtx, channel.Config{URL: cfg.WSURL, User: cfg.UserID})
	dialCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("channel connect")
	}
	defer ch.Close()

	display := media.DefaultDisplay()
	display.Video = cfg.Media.Display
	manager := media.NewManager(
		media.NewUDPDevice(cfg.UserID, cfg.Media.UDPConfig),
		media.DefaultStrategies(cfg.Media.Camera, cfg.Media.Processing),
		display,
	)

	o := orch.New(orch.Config{
		Meeting: cfg.MeetingID,
		Self:    cfg.UserID,
		Role:    cfg.Role,
	}, orch.Deps{
		Media:    manager,
		Channel:  ch,
		API:      meetingapi.New(cfg.APIURL, cfg.UserID, 10*time.Second),
		Factory:  api.NewConnection,
		Recorder: media.NewRecorder(cfg.RecordDir),
	})
	o.OnChange(func(s orch.Session) {
		log.Debug().Str("state", string(s.Status.State)).Str("detail", s.Status.Detail).Int("peers", s.Peers).Int("remote_streams", s.RemoteStreams).Msg("session")
	})

	outcome, err := o.Prepare(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("media unavailable")
	} else {
		log.Info().Str("permission", string(outcome.State)).Msg("media ready")
	}

	if err := o.StartCall(ctx); err != nil {
		log.Fatal().Err(err).Msg("start call")
	}
	defer func() {
		endCtx, endCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer endCancel()
		o.EndCall(endCtx)
	}()

	if cfg.ScreenShare {
		if err := o.StartScreenShare(ctx); err != nil {
			log.Error().Err(err).Msg("screen share")
		}
	}
	if cfg.Record {
		if id, err := o.StartRecording(); err != nil {
			log.Error().Err(err).Msg("recording")
		} else {
			log.Info().Str("id", id).Str("dir", cfg.RecordDir).Msg("recording")
		}
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case <-ch.Done():
		log.Warn().Msg("channel connection lost")
	}
	if cfg.Record {
		if d, err := o.StopRecording(); err == nil {
			log.Info().Dur("elapsed", d).Msg("recording stopped")
		}
	}
}
