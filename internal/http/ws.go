package httpapi

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/warungdata/katalog/internal/broadcast"
	"github.com/warungdata/katalog/internal/obs"
)

// wsHandler upgrades the connection and parks it in the broadcast set until
// the client goes away. The server never reads application data: CloseRead
// keeps control frames flowing and cancels the context on disconnect.
func (a *App) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: a.Cfg.WSAllowedOrigins,
	})
	if err != nil {
		obs.Logger.Warn("ws_accept_failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		return
	}

	id := uuid.NewString()
	ctx := conn.CloseRead(r.Context())

	a.Hub.Add(broadcast.Subscriber{
		ID: id,
		Send: func(sendCtx context.Context, payload string) error {
			return conn.Write(sendCtx, websocket.MessageText, []byte(payload))
		},
	})
	obs.Logger.Info("ws_connected", "client_id", id, "remote", r.RemoteAddr)

	<-ctx.Done()

	a.Hub.Remove(id)
	conn.Close(websocket.StatusNormalClosure, "")
	obs.Logger.Info("ws_disconnected", "client_id", id)
}
