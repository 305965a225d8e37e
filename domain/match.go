package domain

import (
	"time"

	"github.com/google/uuid"
)

// MatchID は対戦を一意に識別する ID です。
type MatchID string

func NewMatchID() MatchID {
	return MatchID(uuid.NewString())
}

func (id MatchID) String() string { return string(id) }

func (id MatchID) IsEmpty() bool { return id == "" }

// ResolveReason は対戦が決着した理由です。
type ResolveReason string

const (
	ReasonTeamWiped ResolveReason = "team_wiped"
	ReasonTimeout   ResolveReason = "timeout"
)

// Draw は勝者がいないことを表す Outcome.Winner の値です。
const Draw = -1

// Outcome は決着時の結果です。Damage[i] はチーム i のプレイヤーが受けたダメージです。
type Outcome struct {
	MatchID   MatchID       `msgpack:"match_id" json:"match_id"`
	Reason    ResolveReason `msgpack:"reason" json:"reason"`
	Winner    int           `msgpack:"winner" json:"winner"`
	Damage    [2]int        `msgpack:"damage" json:"damage"`
	Survivors [2]int        `msgpack:"survivors" json:"survivors"`
	Ticks     int           `msgpack:"ticks" json:"ticks"`
	Elapsed   time.Duration `msgpack:"elapsed" json:"elapsed"`
}

// UnitSnapshot は観戦者に送るユニットの状態です。
type UnitSnapshot struct {
	ID       int      `msgpack:"id"`
	Name     string   `msgpack:"name"`
	Team     int      `msgpack:"team"`
	Star     int      `msgpack:"star"`
	State    string   `msgpack:"state"`
	Position Position `msgpack:"pos"`
	Center   Vec2     `msgpack:"center"`
	HP       float64  `msgpack:"hp"`
	MaxHP    float64  `msgpack:"max_hp"`
	Mana     float64  `msgpack:"mana"`
	MaxMana  float64  `msgpack:"max_mana"`
	Shield   float64  `msgpack:"shield"`
	TargetID int      `msgpack:"target_id"`
}

// ProjectileSnapshot は観戦者に送る投射物の状態です。
type ProjectileSnapshot struct {
	ID       int     `msgpack:"id"`
	OwnerID  int     `msgpack:"owner_id"`
	Position Vec2    `msgpack:"pos"`
	Size     float64 `msgpack:"size"`
	Image    string  `msgpack:"image"`
}

// Snapshot はある時点の対戦全体の状態です。
type Snapshot struct {
	MatchID     MatchID              `msgpack:"match_id"`
	Tick        int                  `msgpack:"tick"`
	Elapsed     time.Duration        `msgpack:"elapsed"`
	Units       []UnitSnapshot       `msgpack:"units"`
	Projectiles []ProjectileSnapshot `msgpack:"projectiles"`
	Resolved    bool                 `msgpack:"resolved"`
}
