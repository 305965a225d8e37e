package application

import (
	"context"

	"hexarena/domain"
)

// NextStep は u が target に近づくための1歩を求めます。
// 射程内ならその場に留まり、そうでなければ隣接セルを NeighborOffsets の順に調べ、
// 盤面上の空きセルで target との距離が厳密に縮まる最初のセルを返します。
// 候補がなければ現在位置を返します。
func (w *World) NextStep(u *Unit, target domain.Position) domain.Position {
	dist := u.Position.Distance(target)
	if dist <= u.Range {
		return u.Position
	}
	for _, next := range u.Position.Neighbors() {
		if !w.IsOnBoard(next) || w.UnitAt(next) != nil {
			continue
		}
		if next.Distance(target) < dist {
			return next
		}
	}
	return u.Position
}

// StepToward は NextStep で求めたセルへ u を移動させ、移動したかを返します。
func (w *World) StepToward(ctx context.Context, u *Unit, target domain.Position) bool {
	next := w.NextStep(u, target)
	if next == u.Position {
		return false
	}
	if err := w.MoveUnit(ctx, u, next); err != nil {
		// NextStep は空きセルしか返さないので、ここに来るのは盤面の不整合のみ
		panic(err)
	}
	return true
}
