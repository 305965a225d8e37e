package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"hexarena/domain"
)

// World は盤面とユニット、飛翔中の投射物を管理する構造体です。
// 書き換えはシミュレーションのゴルーチンが mu を保持して行い、
// 他のゴルーチンは mu の読み取りロックを取ってスナップショットを読みます。
type World struct {
	mu sync.RWMutex

	width  int
	height int
	layout domain.Layout
	cells  []domain.Position

	units       []*Unit
	occupied    map[domain.Position]*Unit
	teams       [2]int
	projectiles []*Projectile

	nextUnitID       int
	nextProjectileID int
	nextShieldID     int

	sched       *Scheduler
	logger      *slog.Logger
	onTeamEmpty func(ctx context.Context, team Team)
}

// NewWorld は width×height の盤面を作ります。有効なセルは col+row が偶数のものです。
func NewWorld(width, height int, layout domain.Layout, sched *Scheduler, logger *slog.Logger) *World {
	if sched == nil {
		sched = NewScheduler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		width:    width,
		height:   height,
		layout:   layout,
		occupied: make(map[domain.Position]*Unit),
		sched:    sched,
		logger:   logger,
	}
	for row := 0; row <= height; row++ {
		for col := 0; col <= width; col++ {
			p := domain.Position{Col: col, Row: row}
			if p.IsValid() {
				w.cells = append(w.cells, p)
			}
		}
	}
	return w
}

func (w *World) Width() int { return w.width }

func (w *World) Height() int { return w.height }

func (w *World) Layout() domain.Layout { return w.layout }

// Now は現在のシミュレーション時間です。
func (w *World) Now() time.Duration { return w.sched.Now() }

func (w *World) Scheduler() *Scheduler { return w.sched }

// Cells は行優先順の有効セルの一覧です。
func (w *World) Cells() []domain.Position { return w.cells }

// IsOnBoard は p が盤面上の有効なセルかを返します。
func (w *World) IsOnBoard(p domain.Position) bool {
	return p.IsValid() && p.Col >= 0 && p.Col <= w.width && p.Row >= 0 && p.Row <= w.height
}

// OnTeamEmpty はチームのユニットが全滅したときに呼ばれる関数を登録します。
func (w *World) OnTeamEmpty(fn func(ctx context.Context, team Team)) {
	w.onTeamEmpty = fn
}

// AddUnit はユニットに ID とチームを割り当てて pos に配置します。
func (w *World) AddUnit(u *Unit, team Team, pos domain.Position) error {
	if !team.Valid() {
		return fmt.Errorf("%w: team %d", domain.ErrInvalidConfig, team)
	}
	if !w.IsOnBoard(pos) {
		return fmt.Errorf("add %s at %s: %w", u.Name, pos, domain.ErrInvalidPosition)
	}
	if other, ok := w.occupied[pos]; ok {
		return fmt.Errorf("add %s at %s (held by %s): %w", u.Name, pos, other, domain.ErrCellOccupied)
	}
	w.nextUnitID++
	u.ID = w.nextUnitID
	u.Team = team
	u.Position = pos
	u.dead = false
	w.units = append(w.units, u)
	w.occupied[pos] = u
	w.teams[team]++
	return nil
}

// MoveUnit はユニットを to に移動させます。
// 移動先が盤外か埋まっている場合は呼び出し側の不具合なので *domain.InvariantViolation を返します。
func (w *World) MoveUnit(ctx context.Context, u *Unit, to domain.Position) error {
	if !w.IsOnBoard(to) {
		return &domain.InvariantViolation{Op: "move " + u.String(), Pos: to, Err: domain.ErrInvalidPosition}
	}
	if other, ok := w.occupied[to]; ok && other != u {
		return &domain.InvariantViolation{Op: "move " + u.String(), Pos: to, Err: domain.ErrCellOccupied}
	}
	if w.occupied[u.Position] == u {
		delete(w.occupied, u.Position)
	}
	from := u.Position
	u.Position = to
	w.occupied[to] = u
	w.logger.DebugContext(ctx, "unit moved", "unit_id", u.ID, "unit", u.Name, "from", from, "to", to, "t", w.Now())
	return nil
}

// RemoveUnit はユニットを盤面とチームから外します。チームが空になったら OnTeamEmpty を呼びます。
func (w *World) RemoveUnit(ctx context.Context, u *Unit) {
	i := slices.Index(w.units, u)
	if i < 0 {
		return
	}
	w.units = slices.Delete(w.units, i, i+1)
	if w.occupied[u.Position] == u {
		delete(w.occupied, u.Position)
	}
	u.dead = true
	u.target = nil
	w.teams[u.Team]--
	w.logger.DebugContext(ctx, "unit removed", "unit_id", u.ID, "unit", u.Name, "team", u.Team, "t", w.Now())

	if w.teams[u.Team] == 0 && w.onTeamEmpty != nil {
		w.onTeamEmpty(ctx, u.Team)
	}
}

// UnitAt は p にいるユニットを返します。いなければ nil です。
func (w *World) UnitAt(p domain.Position) *Unit {
	return w.occupied[p]
}

// Units は生存ユニットを ID の昇順で返します。
func (w *World) Units() []*Unit {
	return slices.Clone(w.units)
}

func (w *World) TeamUnits(team Team) []*Unit {
	out := make([]*Unit, 0, len(w.units))
	for _, u := range w.units {
		if u.Team == team {
			out = append(out, u)
		}
	}
	return out
}

func (w *World) TeamSize(team Team) int {
	if !team.Valid() {
		return 0
	}
	return w.teams[team]
}

// ClosestUnit は filter を満たす自分以外のユニットのうち、最も近い (farthest なら最も遠い) ものを返します。
// 対象にできないユニットは除きます。距離が同じ場合は ID の小さいものを選びます。
func (w *World) ClosestUnit(self *Unit, filter Filter, farthest bool) *Unit {
	var best *Unit
	bestDist := 0
	for _, other := range w.units {
		if other == self || !other.Targetable() || !filter(self, other) {
			continue
		}
		d := self.Position.Distance(other.Position)
		if best == nil || (!farthest && d < bestDist) || (farthest && d > bestDist) {
			best, bestDist = other, d
		}
	}
	return best
}

// ClosestEmptyCell は p に最も近い空きセルを返します。距離が同じ場合は行優先順で先のセルを選びます。
func (w *World) ClosestEmptyCell(p domain.Position) (domain.Position, bool) {
	var best domain.Position
	bestDist := -1
	for _, c := range w.cells {
		if _, ok := w.occupied[c]; ok {
			continue
		}
		d := p.Distance(c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist >= 0
}

// Projectiles は飛翔中の投射物を返します。
func (w *World) Projectiles() []*Projectile {
	return slices.Clone(w.projectiles)
}
