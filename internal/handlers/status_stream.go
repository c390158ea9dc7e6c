package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = streamPongWait * 9 / 10
	streamReadLimit = 1 << 12

	streamDefaultInterval = time.Second
	streamMinInterval     = 10 * time.Millisecond
	streamMaxInterval     = 10 * time.Second
)

type streamFrame struct {
	Type  string      `json:"type"` // "status" or "error"
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Read-only status stream; any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamInterval picks the push period from ?interval=2s or ?interval_ms=2000.
// Out-of-range or malformed values fall through to the next source.
func streamInterval(c *gin.Context) time.Duration {
	inRange := func(d time.Duration) bool { return d >= streamMinInterval && d <= streamMaxInterval }

	if d, err := time.ParseDuration(c.Query("interval")); err == nil && inRange(d) {
		return d
	}
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil && inRange(time.Duration(ms)*time.Millisecond) {
		return time.Duration(ms) * time.Millisecond
	}
	return streamDefaultInterval
}

// statusStream pushes the pump status to one websocket client.
type statusStream struct {
	h        *Handler
	conn     *websocket.Conn
	interval time.Duration
}

// @Summary      Pump status stream
// @Description  WebSocket upgrade. Pushes {"type":"status","data":PumpStatus} every interval (10ms..10s, default 1s).
// @Tags         pump
// @Param        interval     query  string  false  "Push period as a Go duration, e.g. 2s"
// @Param        interval_ms  query  int     false  "Push period in milliseconds"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := streamInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &statusStream{h: h, conn: conn, interval: interval}
	if err := s.run(c.Request.Context()); err != nil && h.log != nil {
		h.log.Infow("ws_stream_closed", "err", err)
	}
}

func (s *statusStream) run(ctx context.Context) error {
	s.conn.SetReadLimit(streamReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	closed := make(chan error, 1)
	go func() { closed <- s.discardIncoming() }()

	if err := s.push(ctx); err != nil {
		return err
	}

	tick := time.NewTicker(s.interval)
	defer tick.Stop()
	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case err := <-closed:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return err
			}
		case <-tick.C:
			if err := s.push(ctx); err != nil {
				return err
			}
		}
	}
}

// discardIncoming keeps control frames flowing until the client goes away.
func (s *statusStream) discardIncoming() error {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// push sends one status frame. A failed lookup is reported to the client
// and ends the stream.
func (s *statusStream) push(ctx context.Context) error {
	st, err := s.h.services.Monitoring.GetStatus(ctx)
	_ = s.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err != nil {
		if s.h.log != nil {
			s.h.log.Errorw("ws_get_status_failed", "err", err)
		}
		_ = s.conn.WriteJSON(streamFrame{Type: "error", Error: errGetState})
		return err
	}
	return s.conn.WriteJSON(streamFrame{Type: "status", Data: st})
}
