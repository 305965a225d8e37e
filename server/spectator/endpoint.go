package spectator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"hexarena/domain"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
)

const (
	DefaultPingInterval  = 10 * time.Second
	DefaultIdleTimeout   = 30 * time.Second
	DefaultWriteBuffer   = 256
	idleCheckInterval    = time.Second
	controlChannelBuffer = 16
)

// WebSocket のクローズコード
const (
	statusNormalClosure   int32 = 1000
	statusGoingAway       int32 = 1001
	statusPolicyViolation int32 = 1008
	statusInternalError   int32 = 1011
)

// Feed は配信元です。domain.Hub が満たします。
type Feed interface {
	Subscribe() <-chan []byte
	Unsubscribe(ch <-chan []byte)
}

type Option func(*Endpoint)

func WithPingInterval(d time.Duration) Option {
	return func(e *Endpoint) {
		if d > 0 {
			e.pingInterval = d
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(e *Endpoint) { e.idleTimeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithWriteBuffer(n int) Option {
	return func(e *Endpoint) {
		if n > 0 {
			e.writeBuffer = n
		}
	}
}

// Endpoint は観戦者1接続分の送受信を担当します。
// 対戦のフレームを Feed から受け取って送り、観戦者からは pong だけを受け付けます。
type Endpoint struct {
	ctx    context.Context
	cancel context.CancelFunc

	session   *domain.Session
	transport domain.Transport
	feed      Feed
	logger    *slog.Logger

	pingInterval time.Duration
	idleTimeout  time.Duration
	writeBuffer  int

	ctrlCh  chan endpointEvent
	writeCh chan []byte

	// lifecycle
	closed atomic.Bool
}

func NewEndpoint(session *domain.Session, transport domain.Transport, feed Feed, opts ...Option) (*Endpoint, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is nil", domain.ErrInitializationFailed)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is nil", domain.ErrInitializationFailed)
	}
	if feed == nil {
		return nil, fmt.Errorf("%w: feed is nil", domain.ErrInitializationFailed)
	}
	e := &Endpoint{
		session:      session,
		transport:    transport,
		feed:         feed,
		logger:       slog.Default(),
		pingInterval: DefaultPingInterval,
		idleTimeout:  DefaultIdleTimeout,
		writeBuffer:  DefaultWriteBuffer,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("session_id", session.ID())
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.ctrlCh = make(chan endpointEvent, controlChannelBuffer)
	e.writeCh = make(chan []byte, e.writeBuffer)
	return e, nil
}

func (e *Endpoint) Session() *domain.Session { return e.session }

// Run は接続が閉じるまでブロックします。parent が終わるとサーバー停止として接続を閉じます。
func (e *Endpoint) Run(parent context.Context) error {
	stop := context.AfterFunc(parent, func() {
		e.closeWith(domain.CloseServerShutdown)
	})
	defer stop()
	defer e.closeWith(domain.CloseNormal)

	frames := e.feed.Subscribe()
	defer e.feed.Unsubscribe(frames)

	hello, err := domain.EncodeControlMessage(domain.FrameHello, e.session.ID())
	if err != nil {
		return err
	}
	if err := e.Send(hello); err != nil {
		return err
	}

	heartbeat := NewHeartbeatService(e.pingInterval, e.session, e.writeCh, e.logger)

	eg, ctx := errgroup.WithContext(e.ctx)
	eg.Go(func() error {
		e.ownerLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		e.readLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		e.writeLoop(ctx)
		return nil
	})
	eg.Go(func() error {
		e.subscribeLoop(ctx, frames)
		return nil
	})
	eg.Go(func() error {
		heartbeat.Run(ctx)
		return nil
	})

	e.logger.InfoContext(ctx, "spectator connected", "remote_addr", e.session.RemoteAddr())
	err = eg.Wait()
	e.logger.InfoContext(parent, "spectator disconnected",
		"reason", e.session.CloseReason(),
		"delivered", e.session.Delivered(),
		"dropped", e.session.Dropped(),
	)
	return err
}

// Send はフレームを送信キューに積みます。キューが満杯なら ErrBackpressure を返します。
func (e *Endpoint) Send(data []byte) error {
	select {
	case e.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (e *Endpoint) ForceClose() {
	e.closeWith(domain.CloseNormal)
}

// ownerLoop は論理セッションの状態を監視し、必要に応じて接続を閉じます。
func (e *Endpoint) ownerLoop(ctx context.Context) {
	interval := idleCheckInterval
	if e.idleTimeout > 0 {
		interval = min(interval, e.idleTimeout)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.ctrlCh:
			e.handleControlEvent(ctx, ev)
		case <-ticker.C:
			if idle, reason := e.session.IsIdle(e.idleTimeout); idle {
				e.handleControlEvent(ctx, endpointEvent{
					kind:   evClose,
					reason: domain.CloseIdle,
					err:    errors.New(reason.String()),
				})
			}
		}
	}
}

func (e *Endpoint) readLoop(ctx context.Context) {
	for {
		data, err := e.transport.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				e.sendCtrlEvent(ctx, endpointEvent{kind: evReadError, err: err})
			}
			return
		}
		e.session.TouchRead()
		e.handleData(ctx, data)
	}
}

func (e *Endpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-e.writeCh:
			if err := e.transport.Write(ctx, data); err != nil {
				if ctx.Err() == nil {
					e.sendCtrlEvent(ctx, endpointEvent{kind: evWriteError, err: err})
				}
				return
			}
			e.session.TouchWrite()
		}
	}
}

// subscribeLoop は Feed からのフレームを writeCh に転送します。
func (e *Endpoint) subscribeLoop(ctx context.Context, frames <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-frames:
			if !ok {
				e.sendCtrlEvent(ctx, endpointEvent{kind: evClose, reason: domain.CloseServerShutdown})
				return
			}
			select {
			case e.writeCh <- data:
			default:
				e.session.MarkDropped()
				e.logger.DebugContext(ctx, "subscribeLoop: writeCh full, frame dropped")
			}
		}
	}
}

func (e *Endpoint) handleData(ctx context.Context, data []byte) {
	env, err := domain.ParseEnvelope(data)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to parse envelope", "err", err)
		return
	}
	if env.SessionID != "" && env.SessionID != e.session.ID() {
		e.logger.WarnContext(ctx, "session ID mismatch", "got", env.SessionID)
		return
	}
	switch env.Kind {
	case domain.FramePong:
		e.sendCtrlEvent(ctx, endpointEvent{kind: evPong})
	default:
		e.logger.DebugContext(ctx, "ignoring spectator frame", "kind", env.Kind)
	}
}

// handleControlEvent は制御チャネルからのイベントを処理し論理セッションの状態を更新する唯一の関数です。
func (e *Endpoint) handleControlEvent(ctx context.Context, ev endpointEvent) {
	switch ev.kind {
	case evClose:
		if ev.err != nil {
			e.logger.InfoContext(ctx, "closing spectator", "reason", ev.reason, "err", ev.err)
		}
		e.closeWith(ev.reason)
	case evPong:
		e.session.TouchPong()
	case evReadError:
		e.logger.DebugContext(ctx, "read failed", "err", ev.err)
		e.closeWith(domain.CloseReadError)
	case evWriteError:
		e.logger.WarnContext(ctx, "write failed", "err", ev.err)
		e.closeWith(domain.CloseWriteError)
	default:
		e.logger.WarnContext(ctx, "unknown endpoint event kind", "kind", ev.kind)
	}
}

func (e *Endpoint) sendCtrlEvent(ctx context.Context, ev endpointEvent) {
	select {
	case e.ctrlCh <- ev:
	case <-ctx.Done():
	}
}

func (e *Endpoint) closeWith(reason domain.CloseReason) {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.cancel()
	e.session.Close(reason)
	_ = e.transport.Close(closeStatus(reason), reason.String())
}

func closeStatus(reason domain.CloseReason) int32 {
	switch reason {
	case domain.CloseIdle:
		return statusPolicyViolation
	case domain.CloseServerShutdown:
		return statusGoingAway
	case domain.CloseReadError, domain.CloseWriteError:
		return statusInternalError
	default:
		return statusNormalClosure
	}
}
