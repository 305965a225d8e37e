package application

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ability はチャンピオン固有のスキルです。
// Cast はすぐに戻り、待機が必要な処理は CastContext.After で予約します。
type Ability interface {
	Cast(ctx context.Context, c *CastContext)
}

// AbilityFunc は関数を Ability として扱うためのアダプタです。
type AbilityFunc func(ctx context.Context, c *CastContext)

func (f AbilityFunc) Cast(ctx context.Context, c *CastContext) { f(ctx, c) }

// AbilityFactory はチャンピオンの設定からスキルを作ります。
type AbilityFactory func(cfg UnitConfig) Ability

// Registry はチャンピオン名とスキルの対応表です。
type Registry struct {
	mu        sync.RWMutex
	factories map[string]AbilityFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]AbilityFactory)}
}

func (r *Registry) Register(name string, f AbilityFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Build は cfg.Name に登録されたスキルを作ります。未登録なら何もしないスキルを返します。
func (r *Registry) Build(cfg UnitConfig) Ability {
	r.mu.RLock()
	f, ok := r.factories[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return notImplemented{}
	}
	return f(cfg)
}

type notImplemented struct{}

func (notImplemented) Cast(ctx context.Context, c *CastContext) {
	c.logger.InfoContext(ctx, "ability not implemented", "unit_id", c.caster.ID, "unit", c.caster.Name)
}

// CastContext はスキルの実行中に使える操作をまとめたものです。
type CastContext struct {
	world  *World
	caster *Unit
	task   *Task
	logger *slog.Logger
}

func (c *CastContext) Caster() *Unit { return c.caster }

func (c *CastContext) World() *World { return c.world }

func (c *CastContext) Now() time.Duration { return c.world.Now() }

// Target は詠唱者の現在の攻撃対象を返します。いなければ最も近い敵を対象にします。
func (c *CastContext) Target() *Unit {
	if t := c.caster.Target(); t != nil {
		return t
	}
	t := c.world.ClosestUnit(c.caster, Enemies, false)
	c.caster.target = t
	return t
}

// Farthest は filter を満たす最も遠いユニットを返します。
func (c *CastContext) Farthest(filter Filter) *Unit {
	return c.world.ClosestUnit(c.caster, filter, true)
}

// Effect は詠唱者の星の数に対応するスキル効果値です。未定義の効果は 0 を返します。
func (c *CastContext) Effect(ctx context.Context, name string) float64 {
	v, ok := c.caster.Effect(name)
	if !ok {
		c.logger.WarnContext(ctx, "ability effect not defined", "unit", c.caster.Name, "effect", name)
	}
	return v
}

func (c *CastContext) Damage(ctx context.Context, target *Unit, amount float64, typ DamageType) DamageResult {
	return c.world.DealDamage(ctx, c.caster, target, amount, typ)
}

func (c *CastContext) Shield(ctx context.Context, target *Unit, amount float64, duration time.Duration) (Shield, bool) {
	return c.world.GrantShield(ctx, target, amount, duration)
}

func (c *CastContext) Launch(ctx context.Context, spec ProjectileSpec) (*Projectile, error) {
	return c.world.Launch(ctx, c.caster, spec)
}

// After は d 経過後に fn を呼びます。詠唱者が死亡するか対戦が終わると呼ばれません。
func (c *CastContext) After(d time.Duration, fn func(ctx context.Context, c *CastContext)) {
	c.task.After(d, func(ctx context.Context, _ *Task) { fn(ctx, c) })
}

func (c *CastContext) Logger() *slog.Logger { return c.logger }
