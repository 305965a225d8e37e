package domain

import (
	"fmt"
	"strings"
)

// IdleReason は観戦セッションが無通信と判定された経路を表すビット集合です。
type IdleReason uint8

const (
	IdleNone     IdleReason = 0
	IdleRead     IdleReason = 1 << 0
	IdleWrite    IdleReason = 1 << 1
	IdlePong     IdleReason = 1 << 2
	IdleDisabled IdleReason = 1 << 7
)

var idleReasonNames = []struct {
	bit  IdleReason
	name string
}{
	{IdleRead, "read"},
	{IdleWrite, "write"},
	{IdlePong, "pong"},
}

func (r IdleReason) Has(x IdleReason) bool { return r&x != 0 }

func (r IdleReason) String() string {
	switch r {
	case IdleNone:
		return "none"
	case IdleDisabled:
		return "disabled"
	}
	var parts []string
	for _, n := range idleReasonNames {
		if r.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
	return strings.Join(parts, "|")
}

// CloseReason は観戦セッションを閉じた理由です。Session.Close に渡します。
type CloseReason uint32

const (
	CloseNone CloseReason = iota
	CloseNormal
	CloseIdle
	CloseReadError
	CloseWriteError
	CloseServerShutdown
)

func (r CloseReason) String() string {
	switch r {
	case CloseNone:
		return "none"
	case CloseNormal:
		return "normal"
	case CloseIdle:
		return "idle"
	case CloseReadError:
		return "read_error"
	case CloseWriteError:
		return "write_error"
	case CloseServerShutdown:
		return "server_shutdown"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(r))
	}
}
