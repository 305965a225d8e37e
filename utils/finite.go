package utils

import (
	"math"

	"hexarena/domain"
)

func FiniteVec(v domain.Vec2) bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
