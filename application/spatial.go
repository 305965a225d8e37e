package application

import "hexarena/domain"

// Locatable は盤面上の位置を持つものです。domain.Position と *Unit が満たします。
type Locatable interface {
	HexPosition() domain.Position
}

// InRadius は center から radius 以内にいるユニットを ID の昇順で返します。
func (w *World) InRadius(center Locatable, radius int) []*Unit {
	c := center.HexPosition()
	var out []*Unit
	for _, u := range w.units {
		if u.Position.Distance(c) <= radius {
			out = append(out, u)
		}
	}
	return out
}

// LineTrace は start から end 方向の幅 width の直線上にいるユニットを返します。
// length が 0 以下なら start と end の距離を長さにします。長さと幅は射影平面の単位で、
// 隣接セル間が 2 です。start と end が同じ場合は何も返しません。
func (w *World) LineTrace(start, end Locatable, width, length float64) []*Unit {
	contains, ok := domain.LineCells(start.HexPosition(), end.HexPosition(), width, length)
	if !ok {
		return nil
	}
	var out []*Unit
	for _, u := range w.units {
		if contains(u.Position) {
			out = append(out, u)
		}
	}
	return out
}

// InCone は center から reference を左端として時計回りに span×60 度、長さ length の扇形にいるユニットを返します。
func (w *World) InCone(center, reference Locatable, span, length int) []*Unit {
	cone, ok := domain.NewCone(center.HexPosition(), reference.HexPosition(), span, length)
	if !ok {
		return nil
	}
	var out []*Unit
	for _, u := range w.units {
		if cone.Contains(u.Position) {
			out = append(out, u)
		}
	}
	return out
}

// Select は units のうち self から見て filter を満たし、対象にできるものを返します。
func Select(self *Unit, units []*Unit, filter Filter) []*Unit {
	out := units[:0:0]
	for _, u := range units {
		if u.Targetable() && filter(self, u) {
			out = append(out, u)
		}
	}
	return out
}
