package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hexarena/application"
	"hexarena/catalog"
	"hexarena/domain"
	"hexarena/internal/telemetry"
	"hexarena/server"
	"hexarena/server/spectator"
	"hexarena/utils"
)

const matchInterval = 3 * time.Second

func main() {
	handler, closeLog, err := utils.NewLogHandler(utils.GetEnvDefault("LOG_LEVEL", "info"), os.Getenv("LOG_FILE"))
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, shutdownTelemetry, err := telemetry.Setup(ctx, "hexarena-spectator", handler)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	slog.SetDefault(logger)

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")

	cat, err := catalog.Load(utils.GetEnvDefault("CHAMPIONS", "catalog/testdata/champions.json"))
	if err != nil {
		log.Fatalf("load champions: %v", err)
	}
	roster, err := catalog.LoadRoster(utils.GetEnvDefault("ROSTER", "catalog/testdata/roster.yaml"))
	if err != nil {
		log.Fatalf("load roster: %v", err)
	}

	hub := domain.NewHub(domain.DefaultSubscriberBuffer)
	go runMatches(ctx, logger, hub, cat, roster)

	s := server.NewServer(ctx, fmt.Sprintf("%s:%s", addr, port), server.Route(hub, logger, spectator.WithPingInterval(5*time.Second)))
	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	logger.InfoContext(ctx, "server listening", "addr", s.Addr())

	<-ctx.Done()
	logger.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			logger.ErrorContext(ctx, "forced close failed", "error", err)
		}
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.ErrorContext(ctx, "telemetry shutdown failed", "error", err)
	}
	logger.InfoContext(ctx, "server shutdown complete")
}

// runMatches は ctx が終わるまで編成どおりの対戦を繰り返し、hub に配信します。
// どちらかのプレイヤーが脱落したら新しいプレイヤーで始め直します。
func runMatches(ctx context.Context, logger *slog.Logger, hub *domain.Hub, cat *catalog.Catalog, roster *catalog.Roster) {
	cfg := roster.Config(application.DefaultConfig())
	names := roster.Players()
	var locals [2]*domain.LocalPlayer

	for ctx.Err() == nil {
		if locals[0] == nil || !locals[0].IsAlive() || !locals[1].IsAlive() {
			locals = [2]*domain.LocalPlayer{domain.NewLocalPlayer(names[0]), domain.NewLocalPlayer(names[1])}
		}
		m, err := application.NewMatch(cfg, cat, [2]domain.Player{locals[0], locals[1]},
			application.WithLogger(logger),
			application.WithPublisher(hub),
		)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create match", "err", err)
			return
		}
		if err := roster.Deploy(ctx, m); err != nil {
			logger.ErrorContext(ctx, "failed to deploy roster", "err", err)
			return
		}
		if _, err := m.Run(ctx); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(matchInterval):
		}
	}
}
