package application

import (
	"context"
	"time"

	"hexarena/domain"
)

// スキル効果表のキー名
const (
	EffectDamage   = "Damage"
	EffectShield   = "Shield"
	EffectDuration = "Duration"
	EffectRadius   = "Radius"
)

const (
	defaultShieldDuration = 4 * time.Second
	ahriSecondHitDelay    = 200 * time.Millisecond

	annieConeSpan   = 2
	annieConeLength = 2

	ezrealLineWidth  = 1
	ezrealLineLength = 8

	poppyBucklerSpeed = 60
	poppyBucklerSize  = 60
)

// DefaultRegistry は実装済みのチャンピオンのスキルを登録したレジストリを返します。
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("Ahri", func(UnitConfig) Ability { return AbilityFunc(castAhri) })
	r.Register("Poppy", func(UnitConfig) Ability { return AbilityFunc(castPoppy) })
	r.Register("Annie", func(UnitConfig) Ability { return AbilityFunc(castAnnie) })
	r.Register("Blitzcrank", func(UnitConfig) Ability { return AbilityFunc(castBlitzcrank) })
	r.Register("Ziggs", func(UnitConfig) Ability { return AbilityFunc(castZiggs) })
	r.Register("Ezreal", func(UnitConfig) Ability { return AbilityFunc(castEzreal) })
	r.Register("Leona", func(UnitConfig) Ability { return AbilityFunc(castLeona) })
	return r
}

func shieldDuration(c *CastContext) time.Duration {
	if v, ok := c.Caster().Effect(EffectDuration); ok && v > 0 {
		return time.Duration(v * float64(time.Second))
	}
	return defaultShieldDuration
}

// castAhri は対象に魔法ダメージを与え、少し置いて同じ対象に確定ダメージを与えます。
func castAhri(ctx context.Context, c *CastContext) {
	target := c.Target()
	if target == nil {
		return
	}
	dmg := c.Effect(ctx, EffectDamage)
	c.Damage(ctx, target, dmg, Magical)
	c.After(ahriSecondHitDelay, func(ctx context.Context, c *CastContext) {
		c.Damage(ctx, target, dmg, True)
	})
}

// castPoppy は最も遠い敵へ盾を投げ、通過した敵に魔法ダメージを与えます。
// 盾は到着すると跳ね返って Poppy の元へ戻り、戻った時点で Poppy にシールドを付与します。
func castPoppy(ctx context.Context, c *CastContext) {
	target := c.Farthest(Enemies)
	if target == nil {
		return
	}
	caster := c.Caster()
	layout := c.World().Layout()
	dmg := c.Effect(ctx, EffectDamage)
	shield := c.Effect(ctx, EffectShield)
	duration := shieldDuration(c)

	_, err := c.Launch(ctx, ProjectileSpec{
		Start: layout.Center(caster.Position),
		End:   layout.Center(target.Position),
		Speed: poppyBucklerSpeed,
		Size:  poppyBucklerSize,
		Image: "poppy_buckler",
		OnCollision: func(ctx context.Context, p *Projectile, u *Unit) {
			if p.Hostile(u) {
				c.World().DealDamage(ctx, caster, u, dmg, Magical)
			}
		},
		OnArrival: func(ctx context.Context, p *Projectile) {
			if caster.IsDead() {
				return
			}
			_, err := c.World().Launch(ctx, caster, ProjectileSpec{
				Start: p.End,
				End:   layout.Center(caster.Position),
				Speed: poppyBucklerSpeed,
				Size:  poppyBucklerSize,
				Image: "poppy_buckler",
				OnArrival: func(ctx context.Context, _ *Projectile) {
					if !caster.IsDead() {
						c.World().GrantShield(ctx, caster, shield, duration)
					}
				},
			})
			if err != nil {
				c.Logger().WarnContext(ctx, "failed to launch buckler return", "unit_id", caster.ID, "error", err)
			}
		},
	})
	if err != nil {
		c.Logger().WarnContext(ctx, "failed to launch buckler", "unit_id", caster.ID, "error", err)
	}
}

// castAnnie は対象を中心とした扇形の敵に魔法ダメージを与え、自身にシールドを付与します。
func castAnnie(ctx context.Context, c *CastContext) {
	caster := c.Caster()
	if target := c.Target(); target != nil {
		// 対象が扇形の中央に来るよう左端を反時計回りに1段ずらす
		left := domain.Rotate(target.Position, caster.Position, -1)
		for _, u := range Select(caster, c.World().InCone(caster, left, annieConeSpan, annieConeLength), Enemies) {
			c.Damage(ctx, u, c.Effect(ctx, EffectDamage), Magical)
		}
	}
	c.Shield(ctx, caster, c.Effect(ctx, EffectShield), shieldDuration(c))
}

// castBlitzcrank は最も遠い敵を自分に最も近い空きセルへ引き寄せ、魔法ダメージを与えます。
func castBlitzcrank(ctx context.Context, c *CastContext) {
	caster := c.Caster()
	target := c.Farthest(Enemies)
	if target == nil {
		return
	}
	dest, ok := c.World().ClosestEmptyCell(caster.Position)
	if ok && dest.Distance(caster.Position) < target.Position.Distance(caster.Position) {
		if err := c.World().MoveUnit(ctx, target, dest); err != nil {
			panic(err)
		}
	}
	c.Damage(ctx, target, c.Effect(ctx, EffectDamage), Magical)
}

// castZiggs は対象の周囲の敵に魔法ダメージを与えます。
func castZiggs(ctx context.Context, c *CastContext) {
	target := c.Target()
	if target == nil {
		return
	}
	radius := 1
	if v, ok := c.Caster().Effect(EffectRadius); ok && v > 0 {
		radius = int(v)
	}
	dmg := c.Effect(ctx, EffectDamage)
	for _, u := range Select(c.Caster(), c.World().InRadius(target, radius), Enemies) {
		c.Damage(ctx, u, dmg, Magical)
	}
}

// castEzreal は対象の方向へ直線を放ち、線上の敵に魔法ダメージを与えます。
func castEzreal(ctx context.Context, c *CastContext) {
	target := c.Target()
	if target == nil {
		return
	}
	caster := c.Caster()
	dmg := c.Effect(ctx, EffectDamage)
	for _, u := range Select(caster, c.World().LineTrace(caster, target, ezrealLineWidth, ezrealLineLength), Enemies) {
		c.Damage(ctx, u, dmg, Magical)
	}
}

// castLeona は自身に一定時間シールドを付与します。
func castLeona(ctx context.Context, c *CastContext) {
	c.Shield(ctx, c.Caster(), c.Effect(ctx, EffectShield), shieldDuration(c))
}
