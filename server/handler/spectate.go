package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"hexarena/domain"
	adapterwebsocket "hexarena/server/adapter/websocket"
	"hexarena/server/spectator"
)

// SpectateHandler は WebSocket 接続を受け付けて観戦ストリームを流します。
type SpectateHandler struct {
	feed   spectator.Feed
	opts   []spectator.Option
	logger *slog.Logger
}

func NewSpectateHandler(feed spectator.Feed, logger *slog.Logger, opts ...spectator.Option) *SpectateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpectateHandler{
		feed:   feed,
		opts:   append([]spectator.Option{spectator.WithLogger(logger)}, opts...),
		logger: logger,
	}
}

func (h *SpectateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession(r.RemoteAddr)
	transport := adapterwebsocket.NewTransportFrom(conn)
	endpoint, err := spectator.NewEndpoint(session, transport, h.feed, h.opts...)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create spectator endpoint", "err", err)
		_ = transport.Close(int32(websocket.StatusInternalError), "initialization failed")
		return
	}
	h.logger.DebugContext(ctx, "accepted new connection", "session_id", session.ID())
	if err := endpoint.Run(ctx); err != nil {
		h.logger.ErrorContext(ctx, "failed to run spectator endpoint", "err", err)
	}
}
