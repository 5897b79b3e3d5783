package attack

import (
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/cogoffice/battlezone/engine/physics"
)

// ImpactVolume is the volume of hit impact sounds
const ImpactVolume = 0.5

// TraceMask is what hitscan attacks can hit
const TraceMask = physics.MaskWorld | physics.MaskAvatar

// ImpactSound returns the sound of a bullet hitting the surface
func ImpactSound(surface string) string {
	if surface == "" {
		surface = physics.SurfaceDefault
	}
	return "impact_bullet_" + surface
}

// Roster finds the combatants present in a zone
type Roster interface {
	FindCombatant(id common.EntityID) (Combatant, bool)
}

// Authorizer decides if the attacker may damage the target
type Authorizer interface {
	CanDamage(attacker, target Combatant, def *Definition) bool
}

// SoundEmitter reports sound events to the clients of a zone. It never fails.
type SoundEmitter interface {
	EmitSound(sound string, pos entity.Vector3, volume float64)
}

// Projectile is a launched attack entity
type Projectile interface {
	LaunchPosition() entity.Vector3
	GetPosition() entity.Vector3
	Impact(pos entity.Vector3)
	Remove()
}

// Result is the outcome of one resolution
type Result struct {
	Hit      bool
	Target   common.EntityID
	Position entity.Vector3
	Distance float64
	Damage   int
	Applied  int
}

// Resolver resolves fired attacks against the combatants of one zone
type Resolver struct {
	Caster physics.RayCaster
	Roster Roster
	// Rules authorizes damage. Nil allows every hit.
	Rules Authorizer
	// Sounds receives impact sounds, may be nil
	Sounds SoundEmitter
}

// TraceAndDamage casts a ray of length dist from origin along dir, ignoring the attacker, and damages the avatar hit
//
// Every one of traces applications deals the damage of the same distance. Hitting level geometry, a removed avatar
// or an avatar the rules protect deals no damage.
func (r *Resolver) TraceAndDamage(attacker Combatant, atk *Attack, origin, dir entity.Vector3, dist float64, traces int, impact bool) Result {
	op := opmon.StartOperation("ResolveAttack")
	defer op.Finish(consts.RESOLVE_ATTACK_TIMEOUT_WARN)

	end := origin.Add(dir.Normalized().Mul(entity.Coord(dist)))
	hit, ok := r.Caster.RayTestClosestNotMe(attacker.CombatantID(), origin, end, TraceMask)
	if !ok {
		return Result{}
	}

	res := Result{
		Hit:      true,
		Target:   hit.Owner,
		Position: hit.Position,
		Distance: float64(hit.Position.DistanceTo(origin)),
	}
	if impact {
		r.emitImpact(hit.Surface, hit.Position)
	}
	target, ok := r.target(attacker, atk, hit.Owner)
	if !ok {
		return res
	}

	res.Damage = CalcDamage(atk.def.BaseDamage, atk.def.MaxDistance, res.Distance)
	for i := 0; i < traces; i++ {
		target.TakeDamage(DamageInfo{
			Attacker: attacker.CombatantID(),
			Kind:     atk.Kind(),
			Damage:   res.Damage,
			Position: hit.Position,
			Origin:   origin,
		})
		res.Applied++
	}
	return res
}

// ProjectileHit resolves a projectile that hit something, then removes the projectile
//
// Damage falls off with the distance the projectile travelled from its launch point.
func (r *Resolver) ProjectileHit(attacker Combatant, atk *Attack, proj Projectile, hit physics.Hit) Result {
	op := opmon.StartOperation("ResolveProjectile")
	defer op.Finish(consts.RESOLVE_ATTACK_TIMEOUT_WARN)
	defer proj.Remove()

	r.emitImpact(hit.Surface, hit.Position)
	proj.Impact(hit.Position)

	cur := proj.GetPosition()
	launch := proj.LaunchPosition()
	res := Result{
		Hit:      true,
		Target:   hit.Owner,
		Position: hit.Position,
		Distance: float64(cur.DistanceTo(launch)),
	}
	target, ok := r.target(attacker, atk, hit.Owner)
	if !ok {
		return res
	}
	res.Damage = CalcDamage(atk.def.BaseDamage, atk.def.MaxDistance, res.Distance)
	target.TakeDamage(DamageInfo{
		Attacker: attacker.CombatantID(),
		Kind:     atk.Kind(),
		Damage:   res.Damage,
		Position: cur,
		Origin:   launch,
	})
	res.Applied = 1
	return res
}

// target returns the combatant owning the hit body if it may be damaged
func (r *Resolver) target(attacker Combatant, atk *Attack, owner common.EntityID) (Combatant, bool) {
	if owner.IsNil() {
		return nil, false // level geometry
	}
	target, ok := r.Roster.FindCombatant(owner)
	if !ok {
		if consts.DEBUG_ATTACKS {
			gwlog.Debugf("%s hit %s which is no longer in the zone", atk, owner)
		}
		return nil, false
	}
	if r.Rules != nil && !r.Rules.CanDamage(attacker, target, atk.def) {
		if consts.DEBUG_ATTACKS {
			gwlog.Debugf("%s may not damage %s", atk, owner)
		}
		return nil, false
	}
	return target, true
}

func (r *Resolver) emitImpact(surface string, pos entity.Vector3) {
	if r.Sounds != nil {
		r.Sounds.EmitSound(ImpactSound(surface), pos, ImpactVolume)
	}
}
