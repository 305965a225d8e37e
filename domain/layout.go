package domain

import "math"

// Sqrt3 は六角形の幅と高さの比に使う定数です。
var Sqrt3 = math.Sqrt(3)

// DefaultHexSize は描画上の六角形の外接円半径です。
const DefaultHexSize = 100.0

// Layout はセル座標と描画座標を相互変換します。
// 盤面の余白は描画側の責務とし、ここでは扱いません。
type Layout struct {
	HexSize float64
}

func DefaultLayout() Layout {
	return Layout{HexSize: DefaultHexSize}
}

// Center はセル中心の描画座標を返します。
func (l Layout) Center(p Position) Vec2 {
	return Vec2{
		X: l.HexSize * Sqrt3 / 2 * float64(p.Col+1),
		Y: l.HexSize * (1 + 1.5*float64(p.Row)),
	}
}

// Cell は描画座標を含むセルを返します。
func (l Layout) Cell(v Vec2) Position {
	col := v.X/(l.HexSize*Sqrt3/2) - 1
	row := (v.Y/l.HexSize - 1) / 1.5
	return RoundPoint(col, row)
}

// Lattice は (col, row·√3) に射影した座標を返します。
// この平面では隣接セル間の距離がすべて 2 になります。
func (p Position) Lattice() Vec2 {
	return Vec2{X: float64(p.Col), Y: float64(p.Row) * Sqrt3}
}
