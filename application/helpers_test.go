package application

import (
	"fmt"
	"log/slog"
	"testing"

	"hexarena/domain"
)

type mapCatalog map[string]UnitConfig

func (c mapCatalog) UnitConfig(name string) (UnitConfig, error) {
	cfg, ok := c[name]
	if !ok {
		return UnitConfig{}, fmt.Errorf("%w: %s", domain.ErrChampionNotFound, name)
	}
	return cfg, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// dummyConfig は攻撃力もマナも持たない頑丈なユニットの設定です。
func dummyConfig(name string) UnitConfig {
	return UnitConfig{
		Name:        name,
		Health:      1000,
		AttackSpeed: 1,
		Range:       1,
	}
}

func newTestWorld() *World {
	return NewWorld(DefaultBoardWidth, DefaultBoardHeight, domain.DefaultLayout(), NewScheduler(), discardLogger())
}

func placeUnit(t *testing.T, w *World, cfg UnitConfig, team Team, pos domain.Position) *Unit {
	t.Helper()
	u, err := NewUnit(cfg, 1)
	if err != nil {
		t.Fatalf("NewUnit(%s) failed: %v", cfg.Name, err)
	}
	if err := w.AddUnit(u, team, pos); err != nil {
		t.Fatalf("AddUnit(%s, %v) failed: %v", cfg.Name, pos, err)
	}
	return u
}

// championCatalog はスキル付きの実在チャンピオンに近い設定を返します。
func championCatalog() mapCatalog {
	return mapCatalog{
		"Ahri": {
			Name: "Ahri", Cost: 2, Traits: []string{"Star Guardian", "Sorcerer"},
			Health: 550, Armor: 20, MagicResist: 20, AttackDamage: 50, AttackSpeed: 0.65, Range: 4,
			ManaStart: 0, ManaCost: 75,
			Effects: map[string][]float64{EffectDamage: {100, 200, 300}},
		},
		"Poppy": {
			Name: "Poppy", Cost: 1, Traits: []string{"Star Guardian", "Vanguard"},
			Health: 500, Armor: 40, MagicResist: 20, AttackDamage: 50, AttackSpeed: 0.55, Range: 1,
			ManaStart: 50, ManaCost: 100,
			Effects: map[string][]float64{EffectDamage: {150, 250, 350}, EffectShield: {300, 450, 600}},
		},
		"Leona": {
			Name: "Leona", Cost: 1, Traits: []string{"Mech-Pilot", "Vanguard"},
			Health: 650, Armor: 40, MagicResist: 20, AttackDamage: 55, AttackSpeed: 0.55, Range: 1,
			ManaStart: 50, ManaCost: 100,
			Effects: map[string][]float64{EffectShield: {150, 250, 400}, EffectDuration: {4, 4, 4}},
		},
		"Ziggs": {
			Name: "Ziggs", Cost: 1, Traits: []string{"Rebel", "Demolitionist"},
			Health: 500, Armor: 20, MagicResist: 20, AttackDamage: 45, AttackSpeed: 0.65, Range: 3,
			ManaStart: 0, ManaCost: 50,
			Effects: map[string][]float64{EffectDamage: {300, 400, 500}},
		},
	}
}
