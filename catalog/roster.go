package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hexarena/application"
	"hexarena/domain"
)

// Placement は1体のユニットの配置です。座標はその陣営から見た自陣座標です。
type Placement struct {
	Champion string `yaml:"champion"`
	Star     int    `yaml:"star"`
	Col      int    `yaml:"col"`
	Row      int    `yaml:"row"`
}

func (p Placement) Position() domain.Position {
	return domain.Position{Col: p.Col, Row: p.Row}
}

// OnBench はベンチに置かれたユニットかを返します。
func (p Placement) OnBench() bool { return p.Row < 0 }

// Side は1人のプレイヤーの編成です。
type Side struct {
	Player string      `yaml:"player"`
	Units  []Placement `yaml:"units"`
}

// Board は編成ファイルで上書きできる対戦設定です。0 の項目は既定値のままにします。
type Board struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	Speed          float64 `yaml:"speed"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
	TickMillis     int     `yaml:"tick_millis"`
}

// Roster は2陣営の編成と盤面設定です。
type Roster struct {
	Board Board   `yaml:"board"`
	Sides [2]Side `yaml:"sides"`
}

func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode roster: %v", domain.ErrInvalidConfig, err)
	}
	for i := range r.Sides {
		if r.Sides[i].Player == "" {
			r.Sides[i].Player = fmt.Sprintf("player%d", i+1)
		}
		for j := range r.Sides[i].Units {
			if r.Sides[i].Units[j].Star == 0 {
				r.Sides[i].Units[j].Star = 1
			}
		}
	}
	return &r, nil
}

// Config は base に編成ファイルの盤面設定を重ねたものを返します。
func (r *Roster) Config(base application.Config) application.Config {
	cfg := base
	if r.Board.Width > 0 {
		cfg.Width = r.Board.Width
	}
	if r.Board.Height > 0 {
		cfg.Height = r.Board.Height
	}
	if r.Board.Speed > 0 {
		cfg.Speed = r.Board.Speed
	}
	if r.Board.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(r.Board.TimeoutSeconds * float64(time.Second))
	}
	if r.Board.TickMillis > 0 {
		cfg.TickDuration = time.Duration(r.Board.TickMillis) * time.Millisecond
	}
	return cfg
}

// Deploy は両陣営のユニットを対戦に配置します。
// 2陣営目の座標は盤面を 180 度回転させて相手側に置きます。
// 行が負の配置はベンチ待機とみなして配置しません。
func (r *Roster) Deploy(ctx context.Context, m *application.Match) error {
	cfg := m.Config()
	for i, side := range r.Sides {
		team := application.Team(i)
		for _, pl := range side.Units {
			if pl.OnBench() {
				continue
			}
			pos := pl.Position()
			if team == application.TeamRed {
				pos = pos.Mirror(cfg.Width, cfg.Height)
			}
			if _, err := m.Spawn(ctx, team, pl.Champion, pl.Star, pos); err != nil {
				return fmt.Errorf("deploy %s for %s: %w", pl.Champion, side.Player, err)
			}
		}
	}
	return nil
}

// Players は各陣営のプレイヤー名です。
func (r *Roster) Players() [2]string {
	return [2]string{r.Sides[0].Player, r.Sides[1].Player}
}
