package avatar

import (
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/spawner"
	"github.com/cogoffice/battlezone/battle/suit"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
)

// Replicated fields of suits
const (
	FieldSuit      = "setSuit"
	FieldActivated = "setActivated"
	FieldTarget    = "setTarget"
)

const deathTask = "suitDeath"

// Suit is a cog guard of a battle zone floor
//
// A suit waits at its spawn or hangout point until its section is activated, then hunts the nearest toon.
type Suit struct {
	Avatar

	plan      *suit.Plan
	level     int
	boss      bool
	section   int
	flags     int
	activated bool

	thinkInterval time.Duration
	deathTime     time.Duration
	aiTimer       entity.EntityTimerID
	target        common.EntityID
}

// OnInit initializes the suit
func (s *Suit) OnInit() {
	s.initAvatar(attack.FactionCog, 1)
	s.thinkInterval = 500 * time.Millisecond
	s.deathTime = 2 * time.Second
}

// Setup turns the suit into the planned guard
func (s *Suit) Setup(g *spawner.Guard, thinkInterval, deathTime time.Duration) {
	s.plan = g.Plan
	s.level = g.Level
	s.boss = g.Boss
	s.section = g.Section
	s.flags = g.Flags
	s.Name = g.Plan.Name
	if thinkInterval > 0 {
		s.thinkInterval = thinkInterval
	}
	if deathTime > 0 {
		s.deathTime = deathTime
	}
	s.SendUpdate(FieldSuit, s.plan.ID, s.level, s.boss, s.section)
	s.SetMaxHealth(suit.MaxHealth(s.level))
	s.SetHealth(s.maxHealth)
	s.GiveAttack(attack.KindClipOnTie)
}

// Plan returns the archetype of the suit
func (s *Suit) Plan() *suit.Plan { return s.plan }

// Level returns the suit level
func (s *Suit) Level() int { return s.level }

// IsBoss returns if the suit is the boss of the floor
func (s *Suit) IsBoss() bool { return s.boss }

// Section returns the floor section the suit guards
func (s *Suit) Section() int { return s.section }

// IsActivated returns if the suit is fighting
func (s *Suit) IsActivated() bool { return s.activated }

// Target returns the toon the suit is attacking
func (s *Suit) Target() common.EntityID { return s.target }

// Activate starts the AI. Dead or active suits are not activated.
func (s *Suit) Activate() bool {
	if s.activated || s.IsDead() || s.IsDestroyed() {
		return false
	}
	s.activated = true
	s.EquipAttack(attack.KindClipOnTie)
	s.aiTimer = s.AddTimer(s.thinkInterval, s.think)
	s.SendUpdate(FieldActivated, true)
	if consts.DEBUG_ZONES {
		gwlog.Debugf("%s activated in section %d", s, s.section)
	}
	return true
}

// Deactivate stops the AI
func (s *Suit) Deactivate() {
	if !s.activated {
		return
	}
	s.activated = false
	s.CancelTimer(s.aiTimer)
	s.aiTimer = 0
	s.target = 0
	s.UnEquipAttack()
	s.SendUpdate(FieldActivated, false)
}

func (s *Suit) think() {
	arena, ok := ArenaOf(&s.Entity)
	atk := s.EquippedAttack()
	if !ok || atk == nil {
		return
	}

	def := atk.Definition()
	var target attack.Combatant
	targets := arena.Registry().LegalTargets(s, def, arena.Combatants())
	if len(targets) > 0 && float64(targets[0].GetPosition().DistanceTo(s.GetPosition())) <= def.Range {
		target = targets[0]
	}
	if target == nil {
		s.setTarget(0)
		return
	}
	s.setTarget(target.CombatantID())
	if atk.CanUse() {
		s.fireAttack(target.GetPosition().Sub(s.GetPosition()))
	}
}

func (s *Suit) setTarget(id common.EntityID) {
	if s.target == id {
		return
	}
	s.target = id
	s.SendUpdate(FieldTarget, int(id))
}

func (s *Suit) onDamaged(info attack.DamageInfo) {
	if !s.activated && s.flags&spawner.FlagDontIgnore != 0 {
		s.Activate()
	}
}

// onHealthZero reports the death to the zone and removes the suit once the death animation is over
func (s *Suit) onHealthZero(info attack.DamageInfo) {
	gwlog.Infof("%s destroyed by %s", s, info.Attacker)
	s.Deactivate()
	if arena, ok := ArenaOf(&s.Entity); ok {
		arena.SuitHPAtZero(s)
	}
	s.AddNamedCallback(deathTask, s.deathTime, func() {
		if arena, ok := ArenaOf(&s.Entity); ok {
			arena.DeadSuit(s)
		}
		s.Destroy()
	})
}

// OnDestroy stops the AI and releases the attacks
func (s *Suit) OnDestroy() {
	s.Deactivate()
	s.Avatar.OnDestroy()
}
