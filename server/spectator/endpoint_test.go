package spectator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"hexarena/domain"
	"hexarena/domain/mocks"
	"hexarena/server/spectator"
)

// blockingRead は ctx が終わるまで戻らない Read です。
func blockingRead(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// capture は Write されたフレームを受け取るチャネルを返します。
func capture(tr *mocks.MockTransport) <-chan []byte {
	written := make(chan []byte, 64)
	tr.EXPECT().Write(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, data []byte) error {
		written <- data
		return nil
	}).AnyTimes()
	return written
}

func nextFrame(t *testing.T, written <-chan []byte) *domain.Envelope {
	t.Helper()
	select {
	case data := <-written:
		env, err := domain.ParseEnvelope(data)
		if err != nil {
			t.Fatalf("ParseEnvelope failed: %v", err)
		}
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func runEndpoint(t *testing.T, ctx context.Context, e *spectator.Endpoint) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("endpoint did not stop")
		return nil
	}
}

func TestNewEndpoint_RequiresDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	s := domain.NewSession("")
	hub := domain.NewHub(0)

	cases := map[string]func() (*spectator.Endpoint, error){
		"nil session":   func() (*spectator.Endpoint, error) { return spectator.NewEndpoint(nil, tr, hub) },
		"nil transport": func() (*spectator.Endpoint, error) { return spectator.NewEndpoint(s, nil, hub) },
		"nil feed":      func() (*spectator.Endpoint, error) { return spectator.NewEndpoint(s, tr, nil) },
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := build(); !errors.Is(err, domain.ErrInitializationFailed) {
				t.Errorf("error = %v, want ErrInitializationFailed", err)
			}
		})
	}

	e, err := spectator.NewEndpoint(s, tr, hub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Session() != s {
		t.Errorf("Session() does not return the given session")
	}
}

func TestEndpoint_ForwardsHubFrames(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes()
	written := capture(tr)
	tr.EXPECT().Close(int32(1000), "normal").Return(nil).Times(1)

	s := domain.NewSession("")
	hub := domain.NewHub(0)
	e, err := spectator.NewEndpoint(s, tr, hub, spectator.WithLogger(discardLogger()), spectator.WithIdleTimeout(0))
	if err != nil {
		t.Fatalf("NewEndpoint failed: %v", err)
	}
	done := runEndpoint(t, context.Background(), e)

	hello := nextFrame(t, written)
	if hello.Kind != domain.FrameHello || hello.SessionID != s.ID() {
		t.Fatalf("first frame = %+v, want hello for %s", hello, s.ID())
	}

	deadline := time.Now().Add(time.Second)
	for hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	data, err := domain.EncodeSnapshotMessage(7, &domain.Snapshot{MatchID: "m1", Tick: 3})
	if err != nil {
		t.Fatalf("EncodeSnapshotMessage failed: %v", err)
	}
	if n := hub.Publish(context.Background(), data); n != 1 {
		t.Fatalf("Publish delivered to %d subscribers, want 1", n)
	}

	snap := nextFrame(t, written)
	if snap.Kind != domain.FrameSnapshot || snap.Seq != 7 || snap.Snapshot.Tick != 3 {
		t.Errorf("forwarded frame = %+v", snap)
	}

	e.ForceClose()
	if err := waitDone(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if !s.IsClosed() || s.CloseReason() != domain.CloseNormal {
		t.Errorf("session closed = %v reason = %v", s.IsClosed(), s.CloseReason())
	}
	if hub.Len() != 0 {
		t.Errorf("hub still has %d subscribers", hub.Len())
	}
}

func TestEndpoint_PongTouchesSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)

	var now atomic.Int64
	start := time.Unix(1_700_000_000, 0)
	now.Store(start.UnixNano())
	clock := func() time.Time { return time.Unix(0, now.Load()) }
	s := domain.NewSessionWithClock("", clock)

	pong, err := domain.EncodeControlMessage(domain.FramePong, s.ID())
	if err != nil {
		t.Fatalf("EncodeControlMessage failed: %v", err)
	}
	served := make(chan struct{})
	gomock.InOrder(
		tr.EXPECT().Read(gomock.Any()).DoAndReturn(func(context.Context) ([]byte, error) {
			now.Store(start.Add(10 * time.Second).UnixNano())
			close(served)
			return pong, nil
		}),
		tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes(),
	)
	capture(tr)
	tr.EXPECT().Close(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	e, err := spectator.NewEndpoint(s, tr, domain.NewHub(0), spectator.WithLogger(discardLogger()), spectator.WithIdleTimeout(0))
	if err != nil {
		t.Fatalf("NewEndpoint failed: %v", err)
	}
	done := runEndpoint(t, context.Background(), e)

	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("pong was never read")
	}
	deadline := time.Now().Add(time.Second)
	for s.IsPongIdle(5*time.Second) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if s.IsPongIdle(5 * time.Second) {
		t.Errorf("pong was not recorded")
	}

	e.ForceClose()
	waitDone(t, done)
}

func TestEndpoint_ReadErrorCloses(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).Return(nil, errors.New("connection reset")).Times(1)
	capture(tr)
	tr.EXPECT().Close(int32(1011), "read_error").Return(nil).Times(1)

	s := domain.NewSession("")
	e, err := spectator.NewEndpoint(s, tr, domain.NewHub(0), spectator.WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("NewEndpoint failed: %v", err)
	}

	if err := waitDone(t, runEndpoint(t, context.Background(), e)); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if s.CloseReason() != domain.CloseReadError {
		t.Errorf("CloseReason = %v, want %v", s.CloseReason(), domain.CloseReadError)
	}
}

func TestEndpoint_IdleSessionIsClosed(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes()
	capture(tr)
	tr.EXPECT().Close(int32(1008), "idle").Return(nil).Times(1)

	s := domain.NewSession("")
	e, err := spectator.NewEndpoint(s, tr, domain.NewHub(0),
		spectator.WithLogger(discardLogger()),
		spectator.WithIdleTimeout(30*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewEndpoint failed: %v", err)
	}

	if err := waitDone(t, runEndpoint(t, context.Background(), e)); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if s.CloseReason() != domain.CloseIdle {
		t.Errorf("CloseReason = %v, want %v", s.CloseReason(), domain.CloseIdle)
	}
}

func TestEndpoint_ParentCancelClosesAsShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := mocks.NewMockTransport(ctrl)
	tr.EXPECT().Read(gomock.Any()).DoAndReturn(blockingRead).AnyTimes()
	capture(tr)
	tr.EXPECT().Close(int32(1001), "server_shutdown").Return(nil).Times(1)

	s := domain.NewSession("")
	e, err := spectator.NewEndpoint(s, tr, domain.NewHub(0), spectator.WithLogger(discardLogger()), spectator.WithIdleTimeout(0))
	if err != nil {
		t.Fatalf("NewEndpoint failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runEndpoint(t, ctx, e)
	cancel()

	if err := waitDone(t, done); err != nil {
		t.Errorf("Run returned %v", err)
	}
	if s.CloseReason() != domain.CloseServerShutdown {
		t.Errorf("CloseReason = %v, want %v", s.CloseReason(), domain.CloseServerShutdown)
	}
}
