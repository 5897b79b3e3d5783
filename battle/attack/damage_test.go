package attack

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestCalcDamage(t *testing.T) {
	assert.Equal(t, 10, CalcDamage(10, 40, 0))
	assert.Equal(t, 10, CalcDamage(10, 40, -3))
	assert.Equal(t, MinDamage, CalcDamage(10, 40, 40))
	assert.Equal(t, MinDamage, CalcDamage(10, 40, 400))
	assert.Equal(t, 5, CalcDamage(10, 40, 20))
	assert.Equal(t, MinDamage, CalcDamage(10, 40, 39.9))
	assert.Equal(t, 4, CalcDamage(4, 0, 10), "no falloff without a max distance")
}

func TestCalcDamageFalloff(t *testing.T) {
	prev := CalcDamage(10, 40, 0)
	for d := 0.5; d < 45; d += 0.5 {
		dmg := CalcDamage(10, 40, d)
		if dmg > prev {
			t.Fatalf("damage grew from %d to %d at distance %.1f", prev, dmg, d)
		}
		if dmg < MinDamage || dmg > 10 {
			t.Fatalf("damage %d out of range at distance %.1f", dmg, d)
		}
		if d < 30 && dmg <= MinDamage {
			t.Fatalf("damage at %.1f should be above the minimum", d)
		}
		prev = dmg
	}
}
