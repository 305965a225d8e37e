package domain

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// EnvelopeVersion は観戦プロトコルのバージョンです。
const EnvelopeVersion = 1

// FrameKind はエンベロープの種別です。
type FrameKind uint8

const (
	FrameSnapshot FrameKind = 1
	FrameOutcome  FrameKind = 2
	FramePing     FrameKind = 3
	FramePong     FrameKind = 4
	FrameHello    FrameKind = 5
)

func (k FrameKind) String() string {
	switch k {
	case FrameSnapshot:
		return "snapshot"
	case FrameOutcome:
		return "outcome"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameHello:
		return "hello"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Envelope は観戦ストリームでやり取りする1メッセージです。msgpack でエンコードします。
type Envelope struct {
	Version   uint8     `msgpack:"v"`
	Kind      FrameKind `msgpack:"k"`
	SessionID string    `msgpack:"sid,omitempty"`
	MatchID   MatchID   `msgpack:"mid,omitempty"`
	Seq       uint32    `msgpack:"seq"`
	Timestamp int64     `msgpack:"ts"`
	Snapshot  *Snapshot `msgpack:"snap,omitempty"`
	Outcome   *Outcome  `msgpack:"out,omitempty"`
}

func NewEnvelope(kind FrameKind) *Envelope {
	return &Envelope{
		Version:   EnvelopeVersion,
		Kind:      kind,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Encode は Envelope をバイト列にエンコードします。
func (e *Envelope) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// ParseEnvelope はバイト列から Envelope をデコードします。
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if e.Version != EnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidEnvelope, e.Version)
	}
	return &e, nil
}

// EncodeSnapshotMessage はスナップショットをエンベロープに包んでエンコードします。
func EncodeSnapshotMessage(seq uint32, snap *Snapshot) ([]byte, error) {
	e := NewEnvelope(FrameSnapshot)
	e.MatchID = snap.MatchID
	e.Seq = seq
	e.Snapshot = snap
	return e.Encode()
}

// EncodeOutcomeMessage は決着結果をエンベロープに包んでエンコードします。
func EncodeOutcomeMessage(seq uint32, out *Outcome) ([]byte, error) {
	e := NewEnvelope(FrameOutcome)
	e.MatchID = out.MatchID
	e.Seq = seq
	e.Outcome = out
	return e.Encode()
}

// EncodeControlMessage は ping/pong/hello のような本文を持たないメッセージをエンコードします。
func EncodeControlMessage(kind FrameKind, sessionID string) ([]byte, error) {
	e := NewEnvelope(kind)
	e.SessionID = sessionID
	return e.Encode()
}
