package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"hexarena/application"
	"hexarena/catalog"
	"hexarena/domain"
	"hexarena/internal/telemetry"
	"hexarena/utils"
)

func main() {
	championsPath := flag.String("champions", utils.GetEnvDefault("CHAMPIONS", "catalog/testdata/champions.json"), "champion stat table (json or yaml)")
	rosterPath := flag.String("roster", utils.GetEnvDefault("ROSTER", "catalog/testdata/roster.yaml"), "roster file")
	runs := flag.Int("runs", 1, "number of matches to play")
	fast := flag.Bool("fast", false, "step the simulation without waiting for wall-clock ticks")
	speed := flag.Float64("speed", envFloat("SPEED", 0), "speed multiplier (0 keeps the roster value)")
	flag.Parse()

	handler, closeLog, err := utils.NewLogHandler(utils.GetEnvDefault("LOG_LEVEL", "info"), os.Getenv("LOG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, shutdown, err := telemetry.Setup(ctx, "hexarena-arena", handler)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "err", err)
		}
	}()
	slog.SetDefault(logger)

	if err := run(ctx, logger, *championsPath, *rosterPath, *runs, *fast, *speed); err != nil {
		logger.Error("arena failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, championsPath, rosterPath string, runs int, fast bool, speed float64) error {
	cat, err := catalog.Load(championsPath)
	if err != nil {
		return err
	}
	roster, err := catalog.LoadRoster(rosterPath)
	if err != nil {
		return err
	}
	cfg := roster.Config(application.DefaultConfig())
	if speed > 0 {
		cfg.Speed = speed
	}

	names := roster.Players()
	locals := [2]*domain.LocalPlayer{domain.NewLocalPlayer(names[0]), domain.NewLocalPlayer(names[1])}
	players := [2]domain.Player{locals[0], locals[1]}
	var wins [3]int

	for i := range runs {
		if !locals[0].IsAlive() || !locals[1].IsAlive() {
			break
		}
		m, err := application.NewMatch(cfg, cat, players, application.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := roster.Deploy(ctx, m); err != nil {
			return err
		}

		var out domain.Outcome
		if fast {
			out = m.RunUntilResolved(ctx)
		} else if out, err = m.Run(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wins[out.Winner+1]++
		fmt.Printf("match %d %s: %s after %v (%d ticks) winner=%s damage=%v hp=[%d %d]\n",
			i+1, out.MatchID, out.Reason, out.Elapsed, out.Ticks, winnerName(names, out.Winner), out.Damage,
			locals[0].HP(), locals[1].HP())
	}

	fmt.Printf("totals: %s=%d %s=%d draws=%d\n", names[0], wins[1], names[1], wins[2], wins[0])
	return nil
}

func winnerName(names [2]string, winner int) string {
	if winner == domain.Draw {
		return "draw"
	}
	return names[winner]
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(utils.GetEnvDefault(key, ""), 64)
	if err != nil {
		return def
	}
	return v
}
