package levels

import (
	"math"
	"math/rand"
)

const (
	expPerLevelUnit = 100
)

// GetLevelFromExp implements the level curve floor(sqrt(exp / 100)).
// Integer math keeps exact squares (100, 400, 900…) on the right level.
func GetLevelFromExp(exp int64) int {
	if exp <= 0 {
		return 0
	}
	return int(isqrt(exp / expPerLevelUnit))
}

// GetExpForLevel returns the total exp at which level starts.
func GetExpForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	return int64(level) * int64(level) * expPerLevelUnit
}

// GetProgressToNextLevelFromExp returns how far exp is into its level, from 0 to 1.
func GetProgressToNextLevelFromExp(exp int64) float64 {
	level := GetLevelFromExp(exp)
	current := GetExpForLevel(level)
	next := GetExpForLevel(level + 1)
	return float64(exp-current) / float64(next-current)
}

func isqrt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func getRandomExpForMessage(min, max int64) int64 {
	if max <= min {
		return min
	}
	return rand.Int63n(max-min+1) + min
}
