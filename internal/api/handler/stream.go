package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/skyrace/internal/api/response"
	"github.com/mcoot/skyrace/internal/services/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = time.Minute
	pingPeriod = pongWait * 9 / 10
)

// StreamConfig holds settings for the snapshot stream
type StreamConfig struct {
	// Interval between pushed snapshots
	Interval time.Duration
	// CheckOrigin decides whether a browser origin may connect. Nil allows
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool
}

// DefaultStreamConfig returns the default stream settings
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{Interval: 100 * time.Millisecond}
}

// StreamHandler pushes lobby snapshots over a websocket
type StreamHandler struct {
	coordinator *session.Coordinator
	interval    time.Duration
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(coordinator *session.Coordinator, cfg StreamConfig, logger *slog.Logger) *StreamHandler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultStreamConfig().Interval
	}
	return &StreamHandler{
		coordinator: coordinator,
		interval:    cfg.Interval,
		upgrader:    websocket.Upgrader{CheckOrigin: cfg.CheckOrigin},
		logger:      logger.With(slog.String("component", "stream")),
	}
}

// Stream handles GET /api/v1/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients send nothing, but reading is needed to process control frames
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("stream opened", slog.String("remote", r.RemoteAddr))
	defer h.logger.Info("stream closed", slog.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.send(ctx, conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			h.close(conn)
			return
		case <-ticker.C:
			if err := h.send(ctx, conn); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) send(ctx context.Context, conn *websocket.Conn) error {
	snap, err := h.coordinator.QueryState(ctx)
	if err != nil {
		h.logger.Error("stream snapshot failed", slog.Any("error", err))
		h.close(conn)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(response.LobbyFromSnapshot(snap))
}

func (h *StreamHandler) close(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
