package rtc

import (
	"fmt"

	"github.com/pion/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// loggerFactory routes pion's internal logs into the global zerolog logger.
type loggerFactory struct{}

func NewLoggerFactory() logging.LoggerFactory { return loggerFactory{} }

func (loggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &logger{l: log.With().Str("module", "pion").Str("scope", scope).Logger()}
}

type logger struct {
	l zerolog.Logger
}

func (z *logger) Trace(msg string) { z.l.Trace().Msg(msg) }
func (z *logger) Debug(msg string) { z.l.Debug().Msg(msg) }
func (z *logger) Info(msg string)  { z.l.Info().Msg(msg) }
func (z *logger) Warn(msg string)  { z.l.Warn().Msg(msg) }
func (z *logger) Error(msg string) { z.l.Error().Msg(msg) }

func (z *logger) Tracef(format string, args ...any) { z.l.Trace().Msg(fmt.Sprintf(format, args...)) }
func (z *logger) Debugf(format string, args ...any) { z.l.Debug().Msg(fmt.Sprintf(format, args...)) }
func (z *logger) Infof(format string, args ...any)  { z.l.Info().Msg(fmt.Sprintf(format, args...)) }
func (z *logger) Warnf(format string, args ...any)  { z.l.Warn().Msg(fmt.Sprintf(format, args...)) }
func (z *logger) Errorf(format string, args ...any) { z.l.Error().Msg(fmt.Sprintf(format, args...)) }
