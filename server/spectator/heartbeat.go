package spectator

import (
	"context"
	"log/slog"
	"time"

	"hexarena/domain"
)

// HeartbeatService は定期的に ping フレームを送信する死活監視サービスです。
type HeartbeatService struct {
	pingInterval time.Duration
	session      *domain.Session
	writeCh      chan<- []byte
	logger       *slog.Logger
}

func NewHeartbeatService(pingInterval time.Duration, session *domain.Session, writeCh chan<- []byte, logger *slog.Logger) *HeartbeatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeartbeatService{
		pingInterval: pingInterval,
		session:      session,
		writeCh:      writeCh,
		logger:       logger,
	}
}

// Run は pingInterval 間隔で ping フレームを writeCh に送信します。
// writeCh が満杯のときはその回の ping を捨てます。ctx がキャンセルされると終了します。
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping, err := domain.EncodeControlMessage(domain.FramePing, h.session.ID())
			if err != nil {
				h.logger.ErrorContext(ctx, "heartbeat: failed to encode ping", "err", err)
				continue
			}
			select {
			case h.writeCh <- ping:
				h.logger.DebugContext(ctx, "heartbeat: ping sent", "session_id", h.session.ID())
			default:
				h.session.MarkDropped()
				h.logger.WarnContext(ctx, "heartbeat: writeCh full, ping dropped", "session_id", h.session.ID())
			}
		}
	}
}
