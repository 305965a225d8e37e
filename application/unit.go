package application

import (
	"fmt"
	"slices"

	"hexarena/domain"
)

// StarMultiplier は星の数ごとの体力と攻撃力の倍率です。添字は星の数です。
var StarMultiplier = [4]float64{0.5, 1, 1.8, 3.6}

const (
	MaxStar = 3

	ManaPerAttack     = 10.0
	MaxManaFromDamage = 50.0
	ManaPerDamage     = 0.1
)

// manaDoublingTraits を持つユニットは通常攻撃で2倍のマナを得ます。
var manaDoublingTraits = []string{"Elementalist", "Sorcerer"}

// UnitConfig はチャンピオン1体分の検証済みの設定です。
type UnitConfig struct {
	Name   string
	Cost   int
	Traits []string
	Image  string

	Health       float64
	Armor        float64
	MagicResist  float64
	AttackDamage float64
	AttackSpeed  float64
	Range        int

	ManaStart float64
	ManaCost  float64
	Effects   map[string][]float64
}

func (c UnitConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: champion name is empty", domain.ErrInvalidConfig)
	case c.Health <= 0:
		return fmt.Errorf("%w: %s: health %v", domain.ErrInvalidConfig, c.Name, c.Health)
	case c.AttackSpeed <= 0:
		return fmt.Errorf("%w: %s: attack speed %v", domain.ErrInvalidConfig, c.Name, c.AttackSpeed)
	case c.Range < 1:
		return fmt.Errorf("%w: %s: range %d", domain.ErrInvalidConfig, c.Name, c.Range)
	case c.AttackDamage < 0 || c.Armor < 0 || c.MagicResist < 0 || c.ManaStart < 0 || c.ManaCost < 0:
		return fmt.Errorf("%w: %s: negative stat", domain.ErrInvalidConfig, c.Name)
	}
	for name, values := range c.Effects {
		if len(values) < MaxStar {
			return fmt.Errorf("%w: %s: effect %q has %d values, want %d", domain.ErrInvalidConfig, c.Name, name, len(values), MaxStar)
		}
	}
	return nil
}

// Catalog はチャンピオン名から設定を引くデータソースです。
// 見つからない場合は domain.ErrChampionNotFound を返します。
type Catalog interface {
	UnitConfig(name string) (UnitConfig, error)
}

// UnitState はユニットの行動状態です。
type UnitState uint8

const (
	StateIdle UnitState = iota
	StateSeeking
	StateAttacking
	StateCasting
	StateDead
)

func (s UnitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeking:
		return "seeking"
	case StateAttacking:
		return "attacking"
	case StateCasting:
		return "casting"
	case StateDead:
		return "dead"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Unit は盤面上の1体のユニットです。
// フィールドはシミュレーションのゴルーチンだけが書き換えます。
type Unit struct {
	ID       int
	Name     string
	Team     Team
	Position domain.Position
	Star     int

	HP      float64
	MaxHP   float64
	Mana    float64
	MaxMana float64

	Armor       float64
	MagicResist float64
	AttackSpeed float64
	Range       int

	cfg        UnitConfig
	shields    []Shield
	target     *Unit
	targetable bool
	dead       bool
	state      UnitState
}

// NewUnit は設定と星の数からユニットを作ります。盤面への配置は World.AddUnit で行います。
func NewUnit(cfg UnitConfig, star int) (*Unit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if star < 1 || star > MaxStar {
		return nil, fmt.Errorf("%w: %s: star %d", domain.ErrInvalidConfig, cfg.Name, star)
	}
	hp := cfg.Health * StarMultiplier[star]
	return &Unit{
		Name:        cfg.Name,
		Star:        star,
		HP:          hp,
		MaxHP:       hp,
		Mana:        cfg.ManaStart,
		MaxMana:     cfg.ManaCost,
		Armor:       cfg.Armor,
		MagicResist: cfg.MagicResist,
		AttackSpeed: cfg.AttackSpeed,
		Range:       cfg.Range,
		cfg:         cfg,
		targetable:  true,
	}, nil
}

func (u *Unit) Config() UnitConfig { return u.cfg }

func (u *Unit) HexPosition() domain.Position { return u.Position }

// AttackDamage は星の倍率を掛けた通常攻撃のダメージです。
func (u *Unit) AttackDamage() float64 {
	return u.cfg.AttackDamage * StarMultiplier[u.Star]
}

// ManaPerAttack は通常攻撃1回で得るマナです。
func (u *Unit) ManaPerAttack() float64 {
	mana := ManaPerAttack
	if u.Star <= 1 {
		mana *= 0.8
	}
	for _, trait := range manaDoublingTraits {
		if u.HasTrait(trait) {
			mana *= 2
			break
		}
	}
	return mana
}

func (u *Unit) HasTrait(name string) bool {
	return slices.Contains(u.cfg.Traits, name)
}

// Effect は現在の星の数に対応するスキル効果値を返します。
func (u *Unit) Effect(name string) (float64, bool) {
	values, ok := u.cfg.Effects[name]
	if !ok || len(values) < u.Star {
		return 0, false
	}
	return values[u.Star-1], true
}

// Targetable は攻撃やスキルの対象にできるかを返します。死亡したユニットは対象になりません。
func (u *Unit) Targetable() bool {
	return u.targetable && !u.dead
}

func (u *Unit) SetTargetable(v bool) { u.targetable = v }

func (u *Unit) IsDead() bool { return u.dead }

func (u *Unit) State() UnitState { return u.state }

// Target は現在の攻撃対象を返します。対象が死亡したか対象外になった場合は nil を返します。
func (u *Unit) Target() *Unit {
	if u.target == nil || !u.target.Targetable() {
		return nil
	}
	return u.target
}

// CanCast はマナが満タンかを返します。マナコスト 0 のユニットはスキルを持たないものとして扱い、詠唱しません。
func (u *Unit) CanCast() bool {
	return u.MaxMana > 0 && u.Mana >= u.MaxMana
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s#%d", u.Name, u.ID)
}
