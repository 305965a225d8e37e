package domain

import (
	"errors"
	"fmt"
)

var (
	ErrChampionNotFound     = errors.New("champion not found")
	ErrInvalidPosition      = errors.New("position is not a valid board cell")
	ErrCellOccupied         = errors.New("cell is occupied")
	ErrInvalidConfig        = errors.New("invalid config")
	ErrInitializationFailed = errors.New("failed to initialize")
	ErrInvalidEnvelope      = errors.New("invalid envelope")
)

// InvariantViolation は呼び出し側が事前に保証すべき条件が破られたことを表します。
// 盤面の整合性が崩れたことを意味するため、呼び出し側はリトライしてはいけません。
type InvariantViolation struct {
	Op  string
	Pos Position
	Err error
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s %s: %v", e.Op, e.Pos, e.Err)
}

func (e *InvariantViolation) Unwrap() error {
	return e.Err
}
