package levels

import (
	"math"
	"testing"
)

func TestGetLevelFromExp(t *testing.T) {
	cases := map[int64]int{
		0:     0,
		99:    0,
		100:   1,
		399:   1,
		400:   2,
		899:   2,
		900:   3,
		10000: 10,
		-5:    0,
	}
	for exp, level := range cases {
		if got := GetLevelFromExp(exp); got != level {
			t.Errorf("GetLevelFromExp(%d) = %d, want %d", exp, got, level)
		}
	}
}

func TestGetLevelFromExpMatchesCurve(t *testing.T) {
	for exp := int64(0); exp <= 250000; exp += 7 {
		want := int(math.Floor(math.Sqrt(float64(exp) / 100)))
		if got := GetLevelFromExp(exp); got != want {
			t.Fatalf("GetLevelFromExp(%d) = %d, want %d", exp, got, want)
		}
	}
}

func TestGetExpForLevel(t *testing.T) {
	for level := 0; level < 50; level++ {
		exp := GetExpForLevel(level)
		if GetLevelFromExp(exp) != level {
			t.Fatalf("level %d starts at %d exp, but that exp maps to level %d", level, exp, GetLevelFromExp(exp))
		}
		if level > 0 && GetLevelFromExp(exp-1) != level-1 {
			t.Fatalf("exp %d should still be level %d", exp-1, level-1)
		}
	}
}

func TestGetProgressToNextLevelFromExp(t *testing.T) {
	if got := GetProgressToNextLevelFromExp(250); got != 0.5 {
		t.Fatalf("progress for 250 exp = %v, want 0.5", got)
	}
	if got := GetProgressToNextLevelFromExp(100); got != 0 {
		t.Fatalf("progress for 100 exp = %v, want 0", got)
	}
}

func TestGetRandomExpForMessageRange(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 5000; i++ {
		exp := getRandomExpForMessage(DefaultMinGain, DefaultMaxGain)
		if exp < DefaultMinGain || exp > DefaultMaxGain {
			t.Fatalf("getRandomExpForMessage() = %d, outside [%d, %d]", exp, DefaultMinGain, DefaultMaxGain)
		}
		seen[exp] = true
	}
	if !seen[DefaultMinGain] || !seen[DefaultMaxGain] {
		t.Fatal("getRandomExpForMessage() never hit the range bounds")
	}
}
