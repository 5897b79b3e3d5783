package suit

import (
	"math/rand"
	"testing"

	"github.com/bmizerany/assert"
)

func TestRoster(t *testing.T) {
	all := All()
	assert.Equal(t, 32, len(all))
	for i, p := range all {
		assert.Equal(t, i, p.ID)
		got, ok := Get(p.ID)
		assert.T(t, ok)
		assert.Equal(t, p, got)
	}
	for _, d := range Depts() {
		plans := ByDept(d)
		assert.Equal(t, 8, len(plans))
		assert.Equal(t, Range{1, 5}, plans[0].LevelRange)
		assert.Equal(t, Range{8, 13}, plans[7].LevelRange)
		assert.T(t, len(Taunts(d)) > 0)
	}
	p, _ := Get(7)
	assert.Equal(t, "The Big Cheese", p.Name)
	_, ok := Get(32)
	assert.T(t, !ok)
	assert.T(t, !Dept("x").IsValid())
}

func TestChooseLevelAndGetAvailableSuits(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		level, plans := ChooseLevelAndGetAvailableSuits(Range{2, 6}, DeptCash, false, rng)
		if level < 2 || level > 6 {
			t.Fatalf("level %d out of range", level)
		}
		if len(plans) == 0 {
			t.Fatalf("no suits at level %d", level)
		}
		for _, p := range plans {
			assert.Equal(t, DeptCash, p.Dept)
			assert.T(t, p.LevelRange.Contains(level))
		}
	}

	level, plans := ChooseLevelAndGetAvailableSuits(Range{7, 12}, DeptLaw, true, rng)
	assert.Equal(t, 12, level)
	assert.Equal(t, 1, len(plans))
	assert.Equal(t, "Big Wig", plans[0].Name)
}

func TestMaxHealth(t *testing.T) {
	assert.Equal(t, 6, MaxHealth(1))
	assert.Equal(t, 156, MaxHealth(11))
}
