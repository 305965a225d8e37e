package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"hexarena/domain"
	"hexarena/utils"
)

func main() {
	handler, closeLog, err := utils.NewLogHandler(utils.GetEnvDefault("LOG_LEVEL", "info"), os.Getenv("LOG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	serverURL := fmt.Sprintf("ws://%s:%s/ws", addr, port)
	logger.Info("watching", "server", serverURL)

	for {
		if ctx.Err() != nil {
			return
		}
		err := watch(ctx, serverURL, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("watch session ended, reconnecting", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func watch(ctx context.Context, serverURL string, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	var sessionID string
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		env, err := domain.ParseEnvelope(data)
		if err != nil {
			logger.Warn("invalid frame", "err", err)
			continue
		}

		switch env.Kind {
		case domain.FrameHello:
			sessionID = env.SessionID
			logger.Info("session assigned", "session_id", sessionID)
		case domain.FramePing:
			pong, err := domain.EncodeControlMessage(domain.FramePong, sessionID)
			if err != nil {
				return err
			}
			if err := conn.Write(ctx, websocket.MessageBinary, pong); err != nil {
				return fmt.Errorf("write pong: %w", err)
			}
		case domain.FrameSnapshot:
			if env.Snapshot != nil {
				fmt.Println(formatSnapshot(env.Snapshot))
			}
		case domain.FrameOutcome:
			if out := env.Outcome; out != nil {
				fmt.Printf("== %s resolved: %s winner=%d damage=%v after %v\n", out.MatchID, out.Reason, out.Winner, out.Damage, out.Elapsed)
			}
		}
	}
}

func formatSnapshot(s *domain.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%-6v", s.Elapsed.Truncate(10*time.Millisecond))
	for _, u := range s.Units {
		fmt.Fprintf(&b, " %d:%s%v hp=%.0f", u.Team, u.Name, u.Position, u.HP)
		if u.Shield > 0 {
			fmt.Fprintf(&b, "+%.0f", u.Shield)
		}
	}
	if n := len(s.Projectiles); n > 0 {
		fmt.Fprintf(&b, " projectiles=%d", n)
	}
	return b.String()
}
