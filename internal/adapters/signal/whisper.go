package signal

import (
	"encoding/json"
	"errors"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/codinglabe/believe-app-sub028/internal/app"
	"github.com/codinglabe/believe-app-sub028/internal/metrics"
	"github.com/rs/zerolog/log"
)

// handleClientEvent relays a client- event to the channel's other
// subscribers unchanged. Client events are never stored.
func (ctl *SignalWSController) handleClientEvent(conn *WsSignalConn, m pusher.Message) {
	if m.Channel == "" {
		ctl.sendError(conn, pusher.CodeGeneric, "client event without channel")
		return
	}
	if ctl.Limiter != nil && !ctl.Limiter.Allow(conn.user) {
		metrics.WhispersLimited.Inc()
		log.Warn().Str("module", "signal").Str("user", string(conn.user)).Msg("client event rate limited")
		ctl.sendError(conn, pusher.CodeRateLimited, "client event rate limit exceeded")
		return
	}
	frame, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode client event")
		return
	}
	n, err := ctl.Hub.Relay(conn.id, m.Channel, frame)
	if errors.Is(err, app.ErrNotSubscribed) {
		ctl.sendError(conn, pusher.CodeNotSubscribed, "not subscribed to "+m.Channel)
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(conn.id)).Str("event", m.Event).Int("sent_to", n).Msg("client event")
}
