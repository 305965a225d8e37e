package application

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hexarena/application")

// Controller は1体のユニットを自律的に動かします。
// 毎ティックの Supervise で死亡判定、スキル詠唱、対象の再取得、攻撃タスクの再開を行います。
type Controller struct {
	unit    *Unit
	world   *World
	ability Ability
	logger  *slog.Logger

	attack *Task
	casts  []*Task
}

func NewController(u *Unit, w *World, ability Ability, logger *slog.Logger) *Controller {
	if ability == nil {
		ability = notImplemented{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		unit:    u,
		world:   w,
		ability: ability,
		logger:  logger,
	}
}

func (c *Controller) Unit() *Unit { return c.unit }

// Supervise はユニットの状態を1ティック分確認します。
func (c *Controller) Supervise(ctx context.Context) {
	u := c.unit
	if u.IsDead() {
		return
	}
	if u.HP < 0 {
		c.die(ctx)
		return
	}

	c.casts = slices.DeleteFunc(c.casts, func(t *Task) bool { return !t.Active() })
	if u.CanCast() {
		u.Mana = 0
		c.cast(ctx)
	}
	if u.Target() == nil {
		c.acquire(ctx)
	}
	if c.attack == nil || !c.attack.Active() {
		c.startAttack()
	}
	c.updateState(ctx)
}

// Cancel はこのユニットが所有するタスクをすべて止めます。
func (c *Controller) Cancel() {
	if c.attack != nil {
		c.attack.Cancel()
	}
	for _, t := range c.casts {
		t.Cancel()
	}
	c.casts = nil
}

func (c *Controller) die(ctx context.Context) {
	c.Cancel()
	c.unit.state = StateDead
	c.logger.InfoContext(ctx, "unit died", "unit_id", c.unit.ID, "unit", c.unit.Name, "team", c.unit.Team, "t", c.world.Now())
	c.world.RemoveUnit(ctx, c.unit)
}

func (c *Controller) acquire(ctx context.Context) *Unit {
	target := c.world.ClosestUnit(c.unit, Enemies, false)
	c.unit.target = target
	if target != nil {
		c.logger.DebugContext(ctx, "target acquired", "unit_id", c.unit.ID, "unit", c.unit.Name, "target_id", target.ID, "target", target.Name, "t", c.world.Now())
	}
	return target
}

func (c *Controller) cast(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "ability.cast", trace.WithAttributes(
		attribute.Int("unit.id", c.unit.ID),
		attribute.String("unit.name", c.unit.Name),
	))
	defer span.End()

	t := c.world.sched.NewTask("cast")
	c.casts = append(c.casts, t)
	c.logger.DebugContext(ctx, "casting ability", "unit_id", c.unit.ID, "unit", c.unit.Name, "t", c.world.Now())
	c.ability.Cast(ctx, &CastContext{
		world:  c.world,
		caster: c.unit,
		task:   t,
		logger: c.logger,
	})
}

func (c *Controller) halfCycle() time.Duration {
	return time.Duration(float64(time.Second) * 0.5 / c.unit.AttackSpeed)
}

// startAttack は半周期待ってから対象に近づき、射程に入ったら攻撃して残りの半周期を待つタスクを始めます。
func (c *Controller) startAttack() {
	t := c.world.sched.NewTask("attack")
	c.attack = t
	t.After(c.halfCycle(), c.approach)
}

func (c *Controller) approach(ctx context.Context, t *Task) {
	u := c.unit
	target := u.Target()
	if target == nil {
		if target = c.acquire(ctx); target == nil {
			return
		}
	}
	if u.Position.Distance(target.Position) > u.Range {
		u.state = StateSeeking
		c.world.StepToward(ctx, u, target.Position)
		t.After(time.Second, c.approach)
		return
	}

	u.state = StateAttacking
	c.world.DealDamage(ctx, u, target, u.AttackDamage(), Physical)
	u.Mana += u.ManaPerAttack()
	t.After(c.halfCycle(), func(context.Context, *Task) {})
}

func (c *Controller) updateState(ctx context.Context) {
	u := c.unit
	prev := u.state
	switch target := u.Target(); {
	case len(c.casts) > 0:
		u.state = StateCasting
	case target == nil:
		u.state = StateIdle
	case u.Position.Distance(target.Position) <= u.Range:
		u.state = StateAttacking
	default:
		u.state = StateSeeking
	}
	if u.state != prev {
		c.logger.DebugContext(ctx, "unit state changed", "unit_id", u.ID, "unit", u.Name, "from", prev, "to", u.state, "t", c.world.Now())
	}
}
