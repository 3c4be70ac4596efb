package signal

import (
	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/rs/zerolog/log"
)

// handleSubscribe joins the socket to a channel. Channel auth is not
// checked; the hub trusts its clients.
func (ctl *SignalWSController) handleSubscribe(conn *WsSignalConn, m pusher.Message) {
	var p pusher.Subscribe
	if err := m.DecodeData(&p); err != nil || p.Channel == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad subscribe payload")
		ctl.sendError(conn, pusher.CodeGeneric, "bad subscribe payload")
		return
	}
	if err := ctl.Hub.Subscribe(conn.id, p.Channel); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", p.Channel).Msg("subscribe")
		ctl.sendError(conn, pusher.CodeGeneric, err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(conn.id)).Str("channel", p.Channel).Msg("subscribe")
	ctl.sendJSON(conn, pusher.EventSubscriptionSucceeded, p.Channel, struct{}{})
}

func (ctl *SignalWSController) handleUnsubscribe(conn *WsSignalConn, m pusher.Message) {
	var p pusher.Subscribe
	if err := m.DecodeData(&p); err != nil || p.Channel == "" {
		ctl.sendError(conn, pusher.CodeGeneric, "bad unsubscribe payload")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(conn.id)).Str("channel", p.Channel).Msg("unsubscribe")
	ctl.Hub.Unsubscribe(conn.id, p.Channel)
}
