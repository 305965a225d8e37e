package domain

import (
	"fmt"
	"math"
)

// Position はダブルド幅座標 (col, row) で表した六角形セルの位置です。
// 同じ行の隣接セルは col が 2 離れ、隣接行のセルは col が 1 ずれます。
// 有効なセルは col+row が偶数になります。
type Position struct {
	Col int `msgpack:"col" json:"col" yaml:"col"`
	Row int `msgpack:"row" json:"row" yaml:"row"`
}

// NeighborOffsets は隣接6方向のオフセットです。
// 経路探索はこの順序で候補セルを試します。
var NeighborOffsets = [6]Position{
	{Col: -2, Row: 0},
	{Col: -1, Row: 1},
	{Col: 1, Row: 1},
	{Col: 2, Row: 0},
	{Col: 1, Row: -1},
	{Col: -1, Row: -1},
}

func (p Position) Add(o Position) Position {
	return Position{Col: p.Col + o.Col, Row: p.Row + o.Row}
}

func (p Position) Sub(o Position) Position {
	return Position{Col: p.Col - o.Col, Row: p.Row - o.Row}
}

func (p Position) Scale(k int) Position {
	return Position{Col: p.Col * k, Row: p.Row * k}
}

// IsValid は col+row の偶奇条件を満たすかを返します。
func (p Position) IsValid() bool {
	return (p.Col+p.Row)&1 == 0
}

// Neighbors は NeighborOffsets の順で隣接セルを返します。盤外のセルも含みます。
func (p Position) Neighbors() [6]Position {
	var out [6]Position
	for i, off := range NeighborOffsets {
		out[i] = p.Add(off)
	}
	return out
}

// Distance は2セル間の六角形距離を返します。
func (p Position) Distance(o Position) int {
	dx := abs(p.Col - o.Col)
	dy := abs(p.Row - o.Row)
	return dy + max(0, (dx-dy)/2)
}

// Mirror は盤面を 180 度回転させた位置を返します。
// 2 チーム目の配置を自陣座標から盤面座標に変換するときに使います。
func (p Position) Mirror(width, height int) Position {
	return Position{Col: width - p.Col, Row: height - p.Row}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Col, p.Row)
}

// Cube は六角形のキューブ座標です。X+Y+Z は常に 0 になります。
type Cube struct {
	X, Y, Z int
}

// Cube はダブルド幅座標をキューブ座標に変換します。
func (p Position) Cube() Cube {
	x := floorDiv(p.Col-p.Row, 2)
	z := p.Row
	return Cube{X: x, Y: -x - z, Z: z}
}

// Position はキューブ座標をダブルド幅座標に戻します。
func (c Cube) Position() Position {
	return Position{Col: 2*c.X + c.Z, Row: c.Z}
}

// Rotate は center を中心に point を時計回りに steps×60 度回転させます。
// steps が負のときは反時計回りになります。
func Rotate(point, center Position, steps int) Position {
	pc, cc := point.Cube(), center.Cube()
	diff := [3]int{pc.X - cc.X, pc.Y - cc.Y, pc.Z - cc.Z}

	ccw := -steps
	shift := mod(ccw, 3)
	var r [3]int
	for i := range r {
		r[i] = diff[(i+shift)%3]
	}
	if mod(ccw, 2) == 1 {
		for i := range r {
			r[i] = -r[i]
		}
	}
	return Cube{X: r[0] + cc.X, Y: r[1] + cc.Y, Z: r[2] + cc.Z}.Position()
}

// RoundPoint は実数座標を最寄りの有効セルに丸めます。
// 丸めた結果が偶奇条件を満たさない場合は col を元の小数値の側へ 1 ずらします。
// 厳密な最近傍ではなく近似です。
func RoundPoint(col, row float64) Position {
	rc, rr := math.Round(col), math.Round(row)
	p := Position{Col: int(rc), Row: int(rr)}
	if !p.IsValid() {
		if col >= rc {
			p.Col++
		} else {
			p.Col--
		}
	}
	return p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// HexPosition は Position 自身を返します。空間クエリにセルとユニットのどちらでも渡せるようにします。
func (p Position) HexPosition() Position { return p }
