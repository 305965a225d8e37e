package application

import (
	"fmt"
	"time"

	"hexarena/domain"
)

const (
	DefaultBoardWidth       = 13
	DefaultBoardHeight      = 5
	DefaultTimeout          = 25 * time.Second
	DefaultTickDuration     = 50 * time.Millisecond
	DefaultSnapshotInterval = 100 * time.Millisecond
)

// Config は対戦の盤面サイズと時間の設定です。
// 時間はすべてシミュレーション時間で、Speed は壁時計に対する倍率です。
type Config struct {
	Width  int
	Height int

	Speed            float64
	Timeout          time.Duration
	TickDuration     time.Duration
	SnapshotInterval time.Duration

	Layout domain.Layout
}

func DefaultConfig() Config {
	return Config{
		Width:            DefaultBoardWidth,
		Height:           DefaultBoardHeight,
		Speed:            1,
		Timeout:          DefaultTimeout,
		TickDuration:     DefaultTickDuration,
		SnapshotInterval: DefaultSnapshotInterval,
		Layout:           domain.DefaultLayout(),
	}
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height < 0:
		return fmt.Errorf("%w: board %dx%d", domain.ErrInvalidConfig, c.Width, c.Height)
	case c.Speed <= 0:
		return fmt.Errorf("%w: speed %v", domain.ErrInvalidConfig, c.Speed)
	case c.TickDuration <= 0:
		return fmt.Errorf("%w: tick duration %v", domain.ErrInvalidConfig, c.TickDuration)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout %v", domain.ErrInvalidConfig, c.Timeout)
	case c.Layout.HexSize <= 0:
		return fmt.Errorf("%w: hex size %v", domain.ErrInvalidConfig, c.Layout.HexSize)
	}
	return nil
}

// TickInterval は1ティックあたりの壁時計の間隔です。
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(c.TickDuration) / c.Speed)
}
