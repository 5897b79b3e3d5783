package zone

import (
	"fmt"

	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/spawner"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/cogoffice/battlezone/engine/physics"
	"github.com/pkg/errors"
)

// Counter inputs, subscribed as "<counter targetname>.<input>"
const (
	InputCountUp   = "CountUp"
	InputCountDown = "CountDown"
)

// clearFloor forgets everything about the current floor and the floors visited so far
func (z *Zone) clearFloor() {
	z.resetFloor()
	z.currentFloor = -1
	z.floorName = ""
	z.plan = nil
	z.visited = common.StringSet{}
	z.floorStarted = false
	z.tauntSuit = 0
	z.elevators = [2]string{ElevatorClosed, ElevatorClosed}
}

// resetFloor drops the per floor state: guard bookkeeping, level counters, walls and section triggers
func (z *Zone) resetFloor() {
	for _, id := range z.floorSubs {
		z.bus.Unsubscribe(id)
	}
	z.floorSubs = nil
	z.guards = map[common.EntityID]*avatar.Suit{}
	z.hpZero = common.EntityIDSet{}
	z.floorGuards = nil
	z.sectionGuards = map[int]*LogicCounter{}
	z.activeSections = map[int]bool{}
	z.counters = map[string]*LogicCounter{}

	z.world.Reset()
	z.sections = newSectionTracker(nil, z.battle.SectionTriggerSlack, z.onNearTrigger)
	for _, e := range z.Members() {
		if e.IsDestroyed() {
			continue
		}
		if _, ok := e.I.(*avatar.Toon); ok {
			z.sections.enter(e.ID, e.GetPosition())
		}
		if _, ok := e.I.(*avatar.Projectile); ok {
			continue
		}
		z.world.SetSphere(e.ID, e.GetPosition(), AvatarRadius, physics.SurfaceFlesh, physics.MaskAvatar)
	}
}

// clearGuards removes every guard of the floor
func (z *Zone) clearGuards() {
	for _, s := range z.Guards() {
		s.Destroy()
	}
	z.guards = map[common.EntityID]*avatar.Suit{}
}

// clearProjectiles removes the projectiles still in flight
func (z *Zone) clearProjectiles() {
	for _, e := range z.Members() {
		if p, ok := e.I.(*avatar.Projectile); ok && !e.IsDestroyed() {
			p.Remove()
		}
	}
}

// startFloor loads the floor layout, plans and spawns its guards and tells the clients which floor to load
func (z *Zone) startFloor(floor int) error {
	if floor >= z.params.NumFloors {
		return errors.Errorf("%s: building %s has no floor %d", z, z.params.Hood, floor)
	}
	op := opmon.StartOperation("StartFloor")
	defer op.Finish(consts.LEVEL_LOAD_TIMEOUT_WARN)

	name := pickFloor(floor, z.params.NumFloors, z.visited, z.rng)
	lvl, err := z.levels.Load(name)
	if err != nil {
		return errors.Wrapf(err, "load floor %d", floor)
	}
	plan, err := spawner.PlanFloor(lvl, z.params.floor(floor), z.rng)
	if err != nil {
		return errors.Wrapf(err, "plan floor %d", floor)
	}

	z.clearGuards()
	z.clearProjectiles()
	z.resetFloor()
	z.currentFloor = floor
	z.floorName = name
	z.plan = plan
	z.visited.Add(name)

	for _, wall := range lvl.FindAllEntities(level.ClassWall) {
		z.world.AddBox(0, wall.ValueVector("mins"), wall.ValueVector("maxs"), wall.ValueString("surface"))
	}
	z.sections = newSectionTracker(plan.Triggers, z.battle.SectionTriggerSlack, z.onNearTrigger)
	for _, id := range z.watchers.ToList() {
		if t, ok := z.findToon(id); ok {
			z.sections.enter(id, t.GetPosition())
		}
	}
	for _, ce := range plan.Counters {
		z.addLevelCounter(ce)
	}
	z.spawnGuards(plan)

	z.SendUpdate(FieldCurrentFloor, floor, z.params.NumFloors, name)
	z.SendUpdate(FieldTauntSuit, int(z.tauntSuit))
	z.floorStarted = true
	gwlog.Infof("%s: floor %d/%d is %s with %d guards", z, floor+1, z.params.NumFloors, name, len(plan.Guards))
	return nil
}

func (z *Zone) spawnGuards(plan *spawner.FloorPlan) {
	ids := make([]common.EntityID, 0, len(plan.Guards))
	counts := map[int]int{}
	for _, g := range plan.Guards {
		e := z.CreateEntity(avatar.SuitType, g.Position)
		s := e.I.(*avatar.Suit)
		s.Setup(g, z.battle.GuardThinkInterval, z.battle.SuitDeathTime)
		z.guards[e.ID] = s
		ids = append(ids, e.ID)
		counts[g.Section]++
		if consts.DEBUG_ZONES {
			gwlog.Debugf("%s: spawned %s as %s", z, s, g)
		}
	}

	// guards are created in plan order, so the first of equals has the lowest ID
	if idx := plan.TauntGuard(); idx >= 0 {
		z.tauntSuit = ids[idx]
	}
	for section, n := range counts {
		section := section
		z.sectionGuards[section] = NewLogicCounter(fmt.Sprintf("section%d", section), n, 0, n, func(output string, value int) {
			if output == OutputHitMin {
				z.publish(EventCogGroupDead, section)
			}
		})
	}
	total := len(plan.Guards)
	z.floorGuards = NewLogicCounter("guards", total, 0, total, func(output string, value int) {
		if output == OutputHitMin {
			z.floorCleared()
		}
	})
}

func (z *Zone) addLevelCounter(ce *level.Entity) {
	name := ce.Targetname
	c := LogicCounterFromLevel(ce, func(output string, value int) {
		z.bus.Publish(name+"."+output, value)
	})
	z.counters[name] = c
	z.subscribe(name+"."+InputCountUp, c.CountUp)
	z.subscribe(name+"."+InputCountDown, c.CountDown)
	if subject := ce.ValueString("countUpOn"); subject != "" {
		z.subscribe(subject, c.CountUp)
	}
	if subject := ce.ValueString("countDownOn"); subject != "" {
		z.subscribe(subject, c.CountDown)
	}
}

func (z *Zone) subscribe(subject string, f func()) {
	id := z.bus.Subscribe(subject, func(subject string, args ...interface{}) {
		f()
	})
	z.floorSubs = append(z.floorSubs, id)
}

// Counter returns the level counter of the current floor with the targetname
func (z *Zone) Counter(name string) (*LogicCounter, bool) {
	c, ok := z.counters[name]
	return c, ok
}

// floorSubject returns the bus subject of a floor event
func (z *Zone) floorSubject(event string) string {
	prefix := "floor"
	if z.plan != nil && z.plan.Info.Targetname != "" {
		prefix = z.plan.Info.Targetname
	}
	return prefix + "." + event
}

func (z *Zone) publish(event string, args ...interface{}) {
	z.bus.Publish(z.floorSubject(event), args...)
}

// EnterSection implements avatar.Arena. The claim is checked against the server side position of the toon.
func (z *Zone) EnterSection(t *avatar.Toon, section int) {
	if !z.fsm.Is(StateBattle) || z.activeSections[section] {
		return
	}
	trig, ok := z.sections.trigger(section)
	if !ok {
		gwlog.Warnf("%s: %s entered section %d which has no trigger", z, t, section)
		return
	}
	if !z.sections.inside(trig, t.GetPosition()) {
		gwlog.Warnf("%s: %s claims section %d from %s, too far from the trigger", z, t, section, t.GetPosition())
		return
	}
	z.activateSection(section)
}

func (z *Zone) onNearTrigger(t *sectionTrigger, toon common.EntityID) {
	z.checkSectionTrigger(t, toon)
}

func (z *Zone) checkSectionTrigger(t *sectionTrigger, toon common.EntityID) {
	if !z.fsm.Is(StateBattle) || z.activeSections[t.section] {
		return
	}
	if e, ok := z.findToon(toon); ok && z.sections.inside(t, e.GetPosition()) {
		z.activateSection(t.section)
	}
}

func (z *Zone) activateSection(section int) {
	z.activeSections[section] = true
	n := 0
	for _, s := range z.Guards() {
		if s.Section() == section && s.Activate() {
			n++
		}
	}
	z.SendUpdate(FieldSectionActivated, section)
	gwlog.Infof("%s: section %d activated, %d guards woke up", z, section, n)
}

// SuitHPAtZero implements avatar.Arena. Each guard is counted once.
func (z *Zone) SuitHPAtZero(s *avatar.Suit) {
	if _, ok := z.guards[s.ID]; !ok || z.hpZero.Contains(s.ID) {
		return
	}
	z.hpZero.Add(s.ID)
	if c, ok := z.sectionGuards[s.Section()]; ok {
		c.CountDown()
	}
}

// DeadSuit implements avatar.Arena. The guard leaves the roster, the last one clears the floor.
func (z *Zone) DeadSuit(s *avatar.Suit) {
	if _, ok := z.guards[s.ID]; !ok {
		return
	}
	z.SuitHPAtZero(s)
	delete(z.guards, s.ID)
	if z.floorGuards != nil {
		z.floorGuards.CountDown()
	}
}
