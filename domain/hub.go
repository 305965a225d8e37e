package domain

import (
	"context"
	"sync"
)

// DefaultSubscriberBuffer は購読者ごとの送信バッファの長さです。
const DefaultSubscriberBuffer = 32

// Hub は対戦のスナップショットを複数の観戦者に配信します。
// 購読者のバッファが埋まっている場合、そのメッセージは購読者に届けずに捨てます。
type Hub struct {
	mu     sync.RWMutex
	subs   map[<-chan []byte]chan []byte
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[<-chan []byte]chan []byte),
		buffer: buffer,
	}
}

func (h *Hub) Subscribe() <-chan []byte {
	ch := make(chan []byte, h.buffer)
	h.mu.Lock()
	h.subs[ch] = ch
	h.mu.Unlock()
	return ch
}

// Unsubscribe は購読を解除してチャネルを閉じます。二重に呼んでも安全です。
func (h *Hub) Unsubscribe(ch <-chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(c)
	}
}

// Publish は全購読者に data を送り、実際に届けた数を返します。
func (h *Hub) Publish(ctx context.Context, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.subs {
		if ctx.Err() != nil {
			return delivered
		}
		select {
		case c <- data:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
