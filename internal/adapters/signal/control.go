package signal

import "github.com/codinglabe/believe-app-sub028/internal/adapters/pusher"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, pusher.EventPong, "", struct{}{})
}
