// Package rules decides which combatants may damage each other
package rules

import (
	"github.com/cogoffice/battlezone/battle/attack"
)

// Relationship is how two combatants regard each other
type Relationship int

// Relationships
const (
	Neutral Relationship = iota
	Friend
	Hostile
)

func (r Relationship) String() string {
	switch r {
	case Friend:
		return "friend"
	case Hostile:
		return "hostile"
	}
	return "neutral"
}

// RelationshipOf returns how a regards b, by faction
func RelationshipOf(a, b attack.Combatant) Relationship {
	fa, fb := a.Faction(), b.Faction()
	if fa == attack.FactionNeutral || fb == attack.FactionNeutral {
		return Neutral
	}
	if fa == fb {
		return Friend
	}
	return Hostile
}

// GameRules is the rule set of a zone
type GameRules interface {
	CanDamage(attacker, target attack.Combatant, def *attack.Definition) bool
}

// Permissive lets every attack damage every target
type Permissive struct{}

// CanDamage implements GameRules
func (Permissive) CanDamage(attacker, target attack.Combatant, def *attack.Definition) bool {
	return true
}

// BattleState reports if the zone is fighting
type BattleState interface {
	InBattle() bool
}

// CogOfficeRules are the rules of a cog office building
type CogOfficeRules struct {
	Zone BattleState
}

// CanDamage refuses self damage, damage to dead targets, damage outside battle, and friendly fire unless the attack
// allows it
func (r CogOfficeRules) CanDamage(attacker, target attack.Combatant, def *attack.Definition) bool {
	if attacker.CombatantID() == target.CombatantID() {
		return false
	}
	if target.IsDead() {
		return false
	}
	if r.Zone != nil && !r.Zone.InBattle() {
		return false
	}
	switch RelationshipOf(attacker, target) {
	case Friend:
		return def != nil && def.FriendlyFire
	case Neutral:
		return false
	}
	return true
}
