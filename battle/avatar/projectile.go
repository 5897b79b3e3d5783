package avatar

import (
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/proto"
)

// ProjectileTickInterval is how often projectiles move
const ProjectileTickInterval = 50 * time.Millisecond

// Replicated fields of projectiles
const (
	FieldLaunch = "launch"
	FieldImpact = "impact"
)

// Projectile is a thrown attack in flight. It implements attack.Projectile.
type Projectile struct {
	entity.Entity

	thrower  common.EntityID
	atk      *attack.Attack
	launch   entity.Vector3
	dir      entity.Vector3
	speed    float64
	maxDist  float64
	lastMove time.Time
	timer    entity.EntityTimerID
}

// Launch starts the flight from the current position along dir
func (p *Projectile) Launch(thrower common.EntityID, atk *attack.Attack, dir entity.Vector3) {
	def := atk.Definition()
	p.thrower = thrower
	p.atk = atk
	p.launch = p.GetPosition()
	p.dir = dir.Normalized()
	p.speed = def.ProjectileSpeed
	p.maxDist = def.Range
	p.lastMove = p.Now()
	p.timer = p.AddTimer(ProjectileTickInterval, p.fly)
	p.SendUpdate(FieldLaunch, int(atk.Kind()), int(thrower), float32(p.dir.X), float32(p.dir.Y), float32(p.dir.Z),
		float32(p.speed), proto.NetworkTime(p.lastMove))
}

// Thrower returns the suit that threw the projectile
func (p *Projectile) Thrower() common.EntityID {
	return p.thrower
}

func (p *Projectile) fly() {
	arena, ok := ArenaOf(&p.Entity)
	if !ok {
		p.Remove()
		return
	}

	now := p.Now()
	dt := now.Sub(p.lastMove).Seconds()
	p.lastMove = now

	from := p.GetPosition()
	to := from.Add(p.dir.Mul(entity.Coord(p.speed * dt)))
	expired := false
	if float64(to.DistanceTo(p.launch)) >= p.maxDist {
		to = p.launch.Add(p.dir.Mul(entity.Coord(p.maxDist)))
		expired = true
	}

	res := arena.Resolver()
	hit, ok := res.Caster.RayTestClosestNotMe(p.thrower, from, to, attack.TraceMask)
	if !ok {
		p.SetPosition(to)
		if expired {
			p.Remove()
		}
		return
	}

	p.SetPosition(hit.Position)
	thrower, ok := arena.FindCombatant(p.thrower)
	if !ok {
		p.Remove() // nobody left to credit
		return
	}
	res.ProjectileHit(thrower, p.atk, p, hit)
}

// LaunchPosition implements attack.Projectile
func (p *Projectile) LaunchPosition() entity.Vector3 {
	return p.launch
}

// Impact implements attack.Projectile
func (p *Projectile) Impact(pos entity.Vector3) {
	p.SendUpdate(FieldImpact, float32(pos.X), float32(pos.Y), float32(pos.Z))
}

// Remove implements attack.Projectile
func (p *Projectile) Remove() {
	p.Destroy()
}
