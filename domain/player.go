package domain

import (
	"log/slog"
	"sync"
)

//go:generate go tool mockgen -destination=./mocks/player_mock.go -package=mocks . Player

// Player は対戦の決着時にダメージを受け取る外部の参加者です。
type Player interface {
	TakeDamage(amount int)
}

// DefaultPlayerHealth はプレイヤーの初期体力です。
const DefaultPlayerHealth = 100

// LocalPlayer はプロセス内で体力を保持する Player 実装です。
type LocalPlayer struct {
	Name string

	mu sync.Mutex
	hp int
}

func NewLocalPlayer(name string) *LocalPlayer {
	return &LocalPlayer{Name: name, hp: DefaultPlayerHealth}
}

func (p *LocalPlayer) TakeDamage(amount int) {
	p.mu.Lock()
	p.hp -= amount
	hp := p.hp
	p.mu.Unlock()

	slog.Info("player took damage", "player", p.Name, "amount", amount, "hp", hp)
	if hp <= 0 {
		slog.Info("player eliminated", "player", p.Name)
	}
}

func (p *LocalPlayer) HP() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hp
}

func (p *LocalPlayer) IsAlive() bool {
	return p.HP() > 0
}
