// Package catalog はチャンピオンの能力値表と対戦の編成ファイルを読み込みます。
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"hexarena/application"
	"hexarena/domain"
)

// Offense は攻撃面の能力値です。
type Offense struct {
	Damage      float64 `json:"damage" yaml:"damage"`
	AttackSpeed float64 `json:"attackSpeed" yaml:"attackSpeed"`
	DPS         float64 `json:"dps" yaml:"dps"`
	Range       int     `json:"range" yaml:"range"`
}

// Defense は防御面の能力値です。
type Defense struct {
	Health      float64 `json:"health" yaml:"health"`
	Armor       float64 `json:"armor" yaml:"armor"`
	MagicResist float64 `json:"magicResist" yaml:"magicResist"`
}

type Stats struct {
	Offense Offense `json:"offense" yaml:"offense"`
	Defense Defense `json:"defense" yaml:"defense"`
}

// Ability はスキルのマナと星ごとの効果値です。Effects の各値は星1〜3の順に並びます。
type Ability struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description" yaml:"description"`
	ManaStart   float64              `json:"manaStart" yaml:"manaStart"`
	ManaCost    float64              `json:"manaCost" yaml:"manaCost"`
	Effects     map[string][]float64 `json:"effects" yaml:"effects"`
}

// Champion は能力値表の1エントリです。
type Champion struct {
	Name    string   `json:"name" yaml:"name"`
	Cost    int      `json:"cost" yaml:"cost"`
	Origin  []string `json:"origin" yaml:"origin"`
	Class   []string `json:"class" yaml:"class"`
	Image   string   `json:"image" yaml:"image"`
	Ability Ability  `json:"ability" yaml:"ability"`
	Stats   Stats    `json:"stats" yaml:"stats"`
}

// Traits は出自と職業をまとめた特性の一覧です。
func (c Champion) Traits() []string {
	return slices.Concat(c.Origin, c.Class)
}

// UnitConfig はシミュレーションが使う検証済みの設定に変換します。
func (c Champion) UnitConfig() (application.UnitConfig, error) {
	image := c.Image
	if image == "" {
		image = strings.ToLower(c.Name)
	}
	cfg := application.UnitConfig{
		Name:         c.Name,
		Cost:         c.Cost,
		Traits:       c.Traits(),
		Image:        image,
		Health:       c.Stats.Defense.Health,
		Armor:        c.Stats.Defense.Armor,
		MagicResist:  c.Stats.Defense.MagicResist,
		AttackDamage: c.Stats.Offense.Damage,
		AttackSpeed:  c.Stats.Offense.AttackSpeed,
		Range:        c.Stats.Offense.Range,
		ManaStart:    c.Ability.ManaStart,
		ManaCost:     c.Ability.ManaCost,
		Effects:      c.Ability.Effects,
	}
	if err := cfg.Validate(); err != nil {
		return application.UnitConfig{}, err
	}
	return cfg, nil
}

// Format はファイル形式です。
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf は拡張子からファイル形式を判定します。
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", domain.ErrInvalidConfig, path)
	}
}

// Catalog はチャンピオン名をキーにした能力値表です。
type Catalog struct {
	champions map[string]Champion
}

func New(champions map[string]Champion) *Catalog {
	c := &Catalog{champions: make(map[string]Champion, len(champions))}
	for key, ch := range champions {
		if ch.Name == "" {
			ch.Name = key
		}
		c.champions[key] = ch
	}
	return c
}

// Load はファイルから能力値表を読み込みます。形式は拡張子で判定します。
func Load(path string) (*Catalog, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read champions: %w", err)
	}
	return Parse(data, format)
}

// Parse は能力値表をデコードし、全エントリを検証します。
func Parse(data []byte, format Format) (*Catalog, error) {
	var champions map[string]Champion
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &champions); err != nil {
			return nil, fmt.Errorf("%w: decode champions: %v", domain.ErrInvalidConfig, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &champions); err != nil {
			return nil, fmt.Errorf("%w: decode champions: %v", domain.ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidConfig, format)
	}

	c := New(champions)
	for _, name := range c.Names() {
		if _, err := c.champions[name].UnitConfig(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// UnitConfig は name の設定を返します。見つからなければ domain.ErrChampionNotFound を返します。
func (c *Catalog) UnitConfig(name string) (application.UnitConfig, error) {
	ch, ok := c.champions[name]
	if !ok {
		return application.UnitConfig{}, fmt.Errorf("%w: %s", domain.ErrChampionNotFound, name)
	}
	return ch.UnitConfig()
}

func (c *Catalog) Champion(name string) (Champion, bool) {
	ch, ok := c.champions[name]
	return ch, ok
}

// Names は登録されているチャンピオン名を昇順で返します。
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.champions))
	for name := range c.champions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (c *Catalog) Len() int { return len(c.champions) }
