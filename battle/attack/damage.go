package attack

import (
	"fmt"
	"math"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
)

// MinDamage is the damage of any hit at or beyond the max distance
const MinDamage = 1

// CalcDamage returns the damage of a hit at distance: base damage at point blank, falling off linearly to MinDamage
// at maxDistance
func CalcDamage(baseDamage int, maxDistance float64, distance float64) int {
	if distance <= 0 || maxDistance <= 0 {
		return maxInt(baseDamage, MinDamage)
	}
	if distance >= maxDistance {
		return MinDamage
	}
	dmg := int(math.Round(float64(baseDamage) * (1 - distance/maxDistance)))
	return maxInt(dmg, MinDamage)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Faction is the side an avatar fights on
type Faction int

// Factions
const (
	FactionNeutral Faction = iota
	FactionToon
	FactionCog
)

func (f Faction) String() string {
	switch f {
	case FactionToon:
		return "toon"
	case FactionCog:
		return "cog"
	}
	return "neutral"
}

// Combatant is an avatar that can be targeted by attacks
type Combatant interface {
	CombatantID() common.EntityID
	Faction() Faction
	GetPosition() entity.Vector3
	IsDead() bool
	TakeDamage(info DamageInfo)
}

// DamageInfo describes one damage application
type DamageInfo struct {
	Attacker common.EntityID
	Kind     Kind
	Damage   int
	Position entity.Vector3
	Origin   entity.Vector3
}

func (d DamageInfo) String() string {
	return fmt.Sprintf("Damage<%d by %s|%d>", d.Damage, d.Attacker, d.Kind)
}
