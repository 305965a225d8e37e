package server

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"hexarena/domain"
	"hexarena/server/handler"
	"hexarena/server/spectator"
)

// Route は観戦サーバーのルーティングを組み立てます。
func Route(hub *domain.Hub, logger *slog.Logger, opts ...spectator.Option) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewSpectateHandler(hub, logger, opts...))
	mux.Handle("/healthz", handler.NewHealthHandler(hub))
	return otelhttp.NewHandler(mux, "spectator")
}
