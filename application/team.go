package application

import "fmt"

// Team は対戦の陣営です。0 と 1 の2陣営のみ存在します。
type Team int

const (
	TeamBlue Team = 0
	TeamRed  Team = 1
)

func (t Team) Opponent() Team { return 1 - t }

func (t Team) Valid() bool { return t == TeamBlue || t == TeamRed }

func (t Team) String() string {
	switch t {
	case TeamBlue:
		return "blue"
	case TeamRed:
		return "red"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// Filter は探索対象のユニットを絞り込む述語です。
type Filter func(self, other *Unit) bool

var (
	Enemies Filter = func(self, other *Unit) bool { return self.Team != other.Team }
	Allies  Filter = func(self, other *Unit) bool { return self.Team == other.Team }
	All     Filter = func(self, other *Unit) bool { return true }
)
