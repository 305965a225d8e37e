package application

import (
	"slices"
	"time"
)

// Shield はダメージを肩代わりする一時的な障壁です。
type Shield struct {
	ID        int
	ExpiresAt time.Duration
	Amount    float64
}

// addShield は有効期限の昇順を保って挿入します。期限が同じものは後ろに並びます。
func (u *Unit) addShield(s Shield) {
	i, _ := slices.BinarySearchFunc(u.shields, s.ExpiresAt, func(e Shield, t time.Duration) int {
		if e.ExpiresAt <= t {
			return -1
		}
		return 1
	})
	u.shields = slices.Insert(u.shields, i, s)
}

// pruneShields は now までに期限が切れたシールドを取り除きます。
func (u *Unit) pruneShields(now time.Duration) {
	u.shields = slices.DeleteFunc(u.shields, func(s Shield) bool {
		return s.ExpiresAt <= now || s.Amount <= 0
	})
}

// absorb は期限の古いシールドから順に damage を吸収させ、吸収量と HP に通る残りを返します。
// 残りを上回るシールドはその場で減らし、それ以下のシールドは消費して取り除きます。
func (u *Unit) absorb(damage float64, now time.Duration) (absorbed, residue float64) {
	u.pruneShields(now)
	remaining := damage
	i := 0
	for ; i < len(u.shields) && remaining > 0; i++ {
		if u.shields[i].Amount > remaining {
			u.shields[i].Amount -= remaining
			remaining = 0
			break
		}
		remaining -= u.shields[i].Amount
	}
	u.shields = u.shields[i:]
	return damage - remaining, remaining
}

// ShieldTotal は now 時点で有効なシールドの合計量です。
func (u *Unit) ShieldTotal(now time.Duration) float64 {
	total := 0.0
	for _, s := range u.shields {
		if s.ExpiresAt > now {
			total += s.Amount
		}
	}
	return total
}

// Shields は有効期限順のシールドのコピーを返します。
func (u *Unit) Shields() []Shield {
	return slices.Clone(u.shields)
}
