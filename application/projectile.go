package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"hexarena/domain"
	"hexarena/utils"
)

const (
	DefaultProjectileSpeed = 60.0 // 1ティックあたりの描画座標での移動量
	DefaultProjectileSize  = 60.0 // 当たり判定の正方形の一辺
)

var ErrInvalidProjectile = errors.New("invalid projectile")

// CollisionFunc は投射物がユニットに初めて触れたときに呼ばれます。
type CollisionFunc func(ctx context.Context, p *Projectile, u *Unit)

// ArrivalFunc は投射物が目的地に着いたときに一度だけ呼ばれます。
type ArrivalFunc func(ctx context.Context, p *Projectile)

// ProjectileSpec は発射する投射物の設定です。座標は描画座標です。
type ProjectileSpec struct {
	Start       domain.Vec2
	End         domain.Vec2
	Speed       float64
	Size        float64
	Image       string
	OnCollision CollisionFunc
	OnArrival   ArrivalFunc
}

// Projectile は飛翔中の投射物です。
// 発射したユニットが死亡しても飛び続け、陣営は発射時のものを使います。
type Projectile struct {
	ID        int
	Owner     *Unit
	OwnerTeam Team
	Position  domain.Vec2
	Start     domain.Vec2
	End       domain.Vec2
	Speed     float64
	Size      float64
	Image     string

	onCollision CollisionFunc
	onArrival   ArrivalFunc
	hit         map[int]struct{}
	arrived     bool
}

// HasHit は id のユニットにすでに当たったかを返します。
func (p *Projectile) HasHit(id int) bool {
	_, ok := p.hit[id]
	return ok
}

func (p *Projectile) Arrived() bool { return p.arrived }

// Hostile は u が発射した陣営の敵かを返します。
func (p *Projectile) Hostile(u *Unit) bool { return u.Team != p.OwnerTeam }

// Launch は owner の投射物を発射します。次のティックから移動を始めます。
func (w *World) Launch(ctx context.Context, owner *Unit, spec ProjectileSpec) (*Projectile, error) {
	if owner == nil {
		return nil, fmt.Errorf("%w: owner is nil", ErrInvalidProjectile)
	}
	if spec.Speed <= 0 || !utils.IsFinite(spec.Speed) {
		return nil, fmt.Errorf("%w: speed %v", ErrInvalidProjectile, spec.Speed)
	}
	if !utils.FiniteVec(spec.Start) || !utils.FiniteVec(spec.End) {
		return nil, fmt.Errorf("%w: non-finite endpoint", ErrInvalidProjectile)
	}
	if spec.Size <= 0 {
		spec.Size = DefaultProjectileSize
	}
	w.nextProjectileID++
	p := &Projectile{
		ID:          w.nextProjectileID,
		Owner:       owner,
		OwnerTeam:   owner.Team,
		Position:    spec.Start,
		Start:       spec.Start,
		End:         spec.End,
		Speed:       spec.Speed,
		Size:        spec.Size,
		Image:       spec.Image,
		onCollision: spec.OnCollision,
		onArrival:   spec.OnArrival,
		hit:         make(map[int]struct{}),
	}
	w.projectiles = append(w.projectiles, p)
	w.logger.DebugContext(ctx, "projectile launched", "projectile_id", p.ID, "unit_id", owner.ID, "unit", owner.Name, "t", w.Now())
	return p, nil
}

// AdvanceProjectiles はすべての投射物を1ティック分進め、到着したものを取り除きます。
// このティック中に発射された投射物は次のティックから動きます。
func (w *World) AdvanceProjectiles(ctx context.Context) int {
	arrived := 0
	for _, p := range slices.Clone(w.projectiles) {
		if p.arrived {
			continue
		}
		w.advance(ctx, p)
		if p.arrived {
			arrived++
		}
	}
	w.projectiles = slices.DeleteFunc(w.projectiles, func(p *Projectile) bool { return p.arrived })
	return arrived
}

func (w *World) advance(ctx context.Context, p *Projectile) {
	from := p.Position
	remaining := from.Dist(p.End)
	if remaining <= p.Speed {
		p.Position = p.End
		p.arrived = true
	} else {
		dir, _ := p.End.Sub(from).Normalize()
		p.Position = from.Add(dir.Scale(p.Speed))
	}

	hits := p.sweep(from, p.Position)
	for _, u := range slices.Clone(w.units) {
		if u.IsDead() || p.HasHit(u.ID) {
			continue
		}
		if !hits(w.layout.Center(u.Position)) {
			continue
		}
		p.hit[u.ID] = struct{}{}
		if p.onCollision != nil {
			p.onCollision(ctx, p, u)
		}
	}

	if p.arrived {
		w.logger.DebugContext(ctx, "projectile arrived", "projectile_id", p.ID, "t", w.Now())
		if p.onArrival != nil {
			p.onArrival(ctx, p)
		}
	}
}

// sweep は一辺 Size の正方形が from から to へ動いた範囲の判定関数を返します。
func (p *Projectile) sweep(from, to domain.Vec2) func(domain.Vec2) bool {
	half := p.Size / 2
	dir, ok := to.Sub(from).Normalize()
	if !ok {
		return func(v domain.Vec2) bool {
			return math.Abs(v.X-to.X) <= half && math.Abs(v.Y-to.Y) <= half
		}
	}
	s, _ := domain.NewStrip(from.Sub(dir.Scale(half)), to.Add(dir.Scale(half)), half, 0)
	return s.Contains
}

func (w *World) clearProjectiles() {
	w.projectiles = nil
}
