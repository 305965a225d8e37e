package domain

const stripTolerance = 0.01

// Strip は start から伸びる、中心線の左右に HalfWidth の幅を持つ有向矩形です。
// 直線攻撃と投射物の掃引判定に使います。
type Strip struct {
	base   Vec2
	across Vec2
	along  Vec2

	HalfWidth float64
	Length    float64
}

// NewStrip は start から end 方向へ length の長さを持つ矩形を作ります。
// length が 0 以下のときは start と end の距離を長さにします。
// start と end が一致する場合は方向が定まらないため false を返します。
func NewStrip(start, end Vec2, halfWidth, length float64) (Strip, bool) {
	dir, ok := end.Sub(start).Normalize()
	if !ok {
		return Strip{}, false
	}
	if length <= 0 {
		length = start.Dist(end)
	}
	return Strip{
		base:      Vec2{X: start.X - halfWidth*dir.Y, Y: start.Y + halfWidth*dir.X},
		across:    Vec2{X: 2 * halfWidth * dir.Y, Y: -2 * halfWidth * dir.X},
		along:     dir.Scale(length),
		HalfWidth: halfWidth,
		Length:    length,
	}, true
}

// Contains は v が矩形の内側 (境界の誤差を含む) にあるかを返します。
func (s Strip) Contains(v Vec2) bool {
	rel := v.Sub(s.base)
	w := rel.Dot(s.across)
	l := rel.Dot(s.along)
	width := 4 * s.HalfWidth * s.HalfWidth
	return w > -stripTolerance && w < width+stripTolerance &&
		l > -stripTolerance && l < s.Length*s.Length+stripTolerance
}

// LineCells は start から end 方向に伸びる幅 width の直線に含まれるかを判定する関数を返します。
// 判定は射影平面で行います。
func LineCells(start, end Position, width, length float64) (func(Position) bool, bool) {
	s, ok := NewStrip(start.Lattice(), end.Lattice(), width, length)
	if !ok {
		return nil, false
	}
	return func(p Position) bool { return s.Contains(p.Lattice()) }, true
}

// Cone は中心から放射状に広がる扇形の範囲です。
type Cone struct {
	Center  Position
	Corners []Position
	Length  int
}

// NewCone は center から reference 方向の長さ length の点を起点に、
// 時計回りに span 回 60 度回転させた角を持つ扇形を作ります。
func NewCone(center, reference Position, span, length int) (Cone, bool) {
	d := center.Distance(reference)
	if d == 0 || span <= 0 || length <= 0 {
		return Cone{}, false
	}
	dir := reference.Sub(center)
	k := float64(length) / float64(d)
	corner := RoundPoint(float64(center.Col)+float64(dir.Col)*k, float64(center.Row)+float64(dir.Row)*k)

	corners := make([]Position, 0, span+1)
	for i := 0; i <= span; i++ {
		corners = append(corners, Rotate(corner, center, i))
	}
	return Cone{Center: center, Corners: corners, Length: length}, true
}

// Contains は p が扇形に含まれるかを返します。
// 中心から Length 以内で、かつ隣り合う2つの角の両方から Length 以内のセルを含みます。
func (c Cone) Contains(p Position) bool {
	if p.Distance(c.Center) > c.Length {
		return false
	}
	for i := 0; i+1 < len(c.Corners); i++ {
		if p.Distance(c.Corners[i]) <= c.Length && p.Distance(c.Corners[i+1]) <= c.Length {
			return true
		}
	}
	return false
}
