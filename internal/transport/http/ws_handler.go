package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/realtime"
)

// pingInterval is how often the server probes an idle socket. A connection
// that misses a ping fails the write loop and is torn down.
const pingInterval = 30 * time.Second

// WSHandler upgrades HTTP connections and bridges them to the realtime gateway.
type WSHandler struct {
	gateway *realtime.Gateway
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(gateway *realtime.Gateway, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gateway, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	// Connect-time authentication: the token rides the query string.
	sess, err := h.gateway.Connect(r.URL.Query().Get("token"))
	if err != nil {
		h.log.Warn().Err(err).Msg("ws handshake rejected")
		conn.Close(websocket.StatusPolicyViolation, "authentication required")
		return
	}
	defer h.gateway.Disconnect(sess)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("user_id", sess.UserID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *realtime.Session) error {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		// Frame-level failures are handled inside the gateway; the
		// connection only dies on transport errors.
		h.gateway.HandleFrame(ctx, raw)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *realtime.Session) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case delivery := <-sess.Outbox():
			if err := wsjson.Write(ctx, conn, delivery); err != nil {
				h.log.Error().Err(err).Int64("user_id", sess.UserID).Msg("write ws delivery")
				return err
			}
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return err
			}
		case <-sess.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
