package rules

import (
	"sort"

	"github.com/cogoffice/battlezone/battle/attack"
)

// Registry is the combat participant registry of a zone: the authorization predicate plus legal target filtering
//
// A nil rule set allows every hit.
type Registry struct {
	rules GameRules
}

// NewRegistry creates a registry with the rules, which may be nil
func NewRegistry(rules GameRules) *Registry {
	return &Registry{rules: rules}
}

// SetRules replaces the active rule set
func (r *Registry) SetRules(rules GameRules) {
	r.rules = rules
}

// Rules returns the active rule set
func (r *Registry) Rules() GameRules {
	return r.rules
}

// CanDamage implements attack.Authorizer
func (r *Registry) CanDamage(attacker, target attack.Combatant, def *attack.Definition) bool {
	if r == nil || r.rules == nil {
		return true
	}
	return r.rules.CanDamage(attacker, target, def)
}

// LegalTargets returns the live hostile candidates the attacker may damage, nearest first
func (r *Registry) LegalTargets(attacker attack.Combatant, def *attack.Definition, candidates []attack.Combatant) []attack.Combatant {
	pos := attacker.GetPosition()
	var res []attack.Combatant
	for _, c := range candidates {
		if c.IsDead() || RelationshipOf(attacker, c) != Hostile {
			continue
		}
		if !r.CanDamage(attacker, c, def) {
			continue
		}
		res = append(res, c)
	}
	sort.SliceStable(res, func(i, j int) bool {
		di, dj := res[i].GetPosition().DistanceTo(pos), res[j].GetPosition().DistanceTo(pos)
		if di != dj {
			return di < dj
		}
		return res[i].CombatantID() < res[j].CombatantID()
	})
	return res
}
