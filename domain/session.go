package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session は観戦者1接続の論理的な状態を表す構造体です。
type Session struct {
	id          string
	remoteAddr  string
	connectedAt time.Time
	clk         func() time.Time

	// activity
	lastRead  atomic.Int64
	lastWrite atomic.Int64
	lastPong  atomic.Int64

	// delivery
	delivered atomic.Uint64
	dropped   atomic.Uint64

	// lifecycle
	closed      atomic.Bool
	closeReason atomic.Uint32
}

func NewSession(remoteAddr string) *Session {
	return NewSessionWithClock(remoteAddr, time.Now)
}

// NewSessionWithClock はテスト用に時間ソースを差し替えた Session を生成します。
func NewSessionWithClock(remoteAddr string, clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	now := clock()
	s := &Session{
		id:          uuid.NewString(),
		remoteAddr:  remoteAddr,
		connectedAt: now,
		clk:         clock,
	}
	s.lastRead.Store(now.UnixNano())
	s.lastWrite.Store(now.UnixNano())
	s.lastPong.Store(now.UnixNano())
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) RemoteAddr() string { return s.remoteAddr }

func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

func (s *Session) TouchRead() {
	s.lastRead.Store(s.clk().UnixNano())
}

func (s *Session) TouchWrite() {
	s.lastWrite.Store(s.clk().UnixNano())
	s.delivered.Add(1)
}

func (s *Session) TouchPong() {
	s.lastPong.Store(s.clk().UnixNano())
}

// MarkDropped は送信バッファが埋まっていて捨てたフレームを数えます。
func (s *Session) MarkDropped() {
	s.dropped.Add(1)
}

func (s *Session) Delivered() uint64 { return s.delivered.Load() }

func (s *Session) Dropped() uint64 { return s.dropped.Load() }

// Close はセッションを閉じ済みにします。最初の呼び出しだけが reason を記録して true を返します。
func (s *Session) Close(reason CloseReason) bool {
	if s.closed.CompareAndSwap(false, true) {
		s.closeReason.Store(uint32(reason))
		return true
	}
	return false
}

func (s *Session) CloseReason() CloseReason { return CloseReason(s.closeReason.Load()) }

// IsIdle は読み込み・書き込み・pong のいずれかが timeout を超えて途絶えているかを返します。
func (s *Session) IsIdle(timeout time.Duration) (bool, IdleReason) {
	if timeout <= 0 {
		return false, IdleDisabled
	}
	var reason IdleReason
	if s.IsReadIdle(timeout) {
		reason |= IdleRead
	}
	if s.IsWriteIdle(timeout) {
		reason |= IdleWrite
	}
	if s.IsPongIdle(timeout) {
		reason |= IdlePong
	}
	return reason != IdleNone, reason
}

func (s *Session) IsReadIdle(timeout time.Duration) bool {
	return s.idleSince(s.lastRead.Load(), timeout)
}

func (s *Session) IsWriteIdle(timeout time.Duration) bool {
	return s.idleSince(s.lastWrite.Load(), timeout)
}

func (s *Session) IsPongIdle(timeout time.Duration) bool {
	return s.idleSince(s.lastPong.Load(), timeout)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

func (s *Session) idleSince(nano int64, timeout time.Duration) bool {
	return s.clk().Sub(time.Unix(0, nano)) > timeout
}
