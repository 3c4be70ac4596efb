package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ctx done")
			c.Close()
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		c.Close()
		left := ctl.Hub.Disconnect(c.id)
		ctl.BroadcastLeft(left, c.user)
		if ctl.Limiter != nil && ctl.Hub.Registry.SocketsOfUser(c.user) == 0 {
			ctl.Limiter.Forget(c.user)
		}
	}()

	// Clients ping within the advertised activity timeout.
	idle := 2 * ctl.PingPeriod
	for {
		if ctx.Err() != nil {
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump ctx done")
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(idle))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("readPump read error")
			}
			return
		}
		ctl.handleMessage(c, data)
	}
}

func (ctl *SignalWSController) handleMessage(c *WsSignalConn, data []byte) {
	var m pusher.Message
	if err := json.Unmarshal(data, &m); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, pusher.CodeGeneric, "bad json")
		return
	}

	switch {
	case m.Event == pusher.EventPing:
		ctl.handlePing(c)
	case m.Event == pusher.EventPong:
	case m.Event == pusher.EventSubscribe:
		ctl.handleSubscribe(c, m)
	case m.Event == pusher.EventUnsubscribe:
		ctl.handleUnsubscribe(c, m)
	case pusher.IsClientEvent(m.Event):
		ctl.handleClientEvent(c, m)
	default:
		log.Warn().Str("module", "signal").Str("event", m.Event).Msg("unknown event")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, event, channel string, v any) {
	b, err := pusher.Encode(event, channel, v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code int, msg string) {
	ctl.sendJSON(c, pusher.EventError, "", pusher.ErrorData{Message: msg, Code: code})
}
