package application

import (
	"context"
	"fmt"
	"math"
	"time"
)

// DamageType はダメージの種別です。
type DamageType uint8

const (
	Physical DamageType = iota
	Magical
	True
)

func (t DamageType) String() string {
	switch t {
	case Physical:
		return "physical"
	case Magical:
		return "magical"
	case True:
		return "true"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// DamageResult は1回のダメージ適用の内訳です。
type DamageResult struct {
	Raw        float64
	Mitigated  float64
	Absorbed   float64
	ToHealth   float64
	ManaGained float64
}

// Applied はダメージが実際に適用されたかを返します。
func (r DamageResult) Applied() bool { return r.Raw > 0 }

// Mitigate は防御力による軽減後のダメージを返します。
func Mitigate(raw float64, typ DamageType, armor, magicResist float64) float64 {
	switch typ {
	case Physical:
		return raw * (1 - armor/(100+armor))
	case Magical:
		return raw * (1 - magicResist/(100+magicResist))
	default:
		return raw
	}
}

// ManaFromDamage は軽減前のダメージ量から受け手が得るマナを返します。
func ManaFromDamage(raw float64) float64 {
	return math.Min(MaxManaFromDamage, math.Trunc(raw*ManaPerDamage))
}

// DealDamage は source から target にダメージを与えます。
// amount が 0 以下か target が対象にできない場合は何もしません。source は nil でも構いません。
func (w *World) DealDamage(ctx context.Context, source, target *Unit, amount float64, typ DamageType) DamageResult {
	if amount <= 0 || target == nil || !target.Targetable() {
		return DamageResult{}
	}
	return w.receiveDamage(ctx, source, target, amount, typ)
}

func (w *World) receiveDamage(ctx context.Context, source, target *Unit, amount float64, typ DamageType) DamageResult {
	res := DamageResult{Raw: amount}

	res.ManaGained = ManaFromDamage(amount)
	target.Mana += res.ManaGained

	res.Mitigated = math.Trunc(Mitigate(amount, typ, target.Armor, target.MagicResist))
	res.Absorbed, res.ToHealth = target.absorb(res.Mitigated, w.Now())
	target.HP -= res.ToHealth

	sourceID, sourceName := 0, ""
	if source != nil {
		sourceID, sourceName = source.ID, source.Name
	}
	w.logger.DebugContext(ctx, "damage applied",
		"unit_id", target.ID,
		"unit", target.Name,
		"source_id", sourceID,
		"source", sourceName,
		"type", typ,
		"raw", amount,
		"mitigated", res.Mitigated,
		"absorbed", res.Absorbed,
		"hp", target.HP,
		"mana_gained", res.ManaGained,
		"t", w.Now(),
	)
	return res
}

// GrantShield は target に amount のシールドを duration の間付与します。
// 期限が来たシールドは取り除かれます。
func (w *World) GrantShield(ctx context.Context, target *Unit, amount float64, duration time.Duration) (Shield, bool) {
	if target == nil || target.IsDead() || amount <= 0 || duration <= 0 {
		return Shield{}, false
	}
	w.nextShieldID++
	s := Shield{ID: w.nextShieldID, ExpiresAt: w.Now() + duration, Amount: amount}
	target.addShield(s)

	expiry := w.sched.NewTask("shield-expiry")
	expiry.After(duration, func(ctx context.Context, _ *Task) {
		target.pruneShields(w.Now())
	})

	w.logger.DebugContext(ctx, "shield granted", "unit_id", target.ID, "unit", target.Name, "shield_id", s.ID, "amount", amount, "expires_at", s.ExpiresAt, "t", w.Now())
	return s, true
}
