// Package zone implements the battle zone: the space toons fight a cog building in, floor after floor.
//
// A zone drives the whole encounter through a state machine:
//
//	off -> floorIntermission -> rideElevator -> faceOff -> battle -> floorIntermission ... -> victory -> off
//
// Intermissions wait for every watching toon twice: once to be ready to leave the floor, then to have loaded the
// next one. Zone level requests are never made from inside a state hook.
package zone

import (
	"math/rand"
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/quest"
	"github.com/cogoffice/battlezone/battle/rules"
	"github.com/cogoffice/battlezone/battle/spawner"
	"github.com/cogoffice/battlezone/battle/suit"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/fsm"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/cogoffice/battlezone/engine/physics"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/cogoffice/battlezone/engine/pubsub"
	"github.com/pkg/errors"
)

// ZoneType is the space type of battle zones
const ZoneType = "BattleZone"

// AvatarRadius is the radius of the hit sphere of toons and suits
const AvatarRadius = 1.5

// Register registers the zone space type
func Register() {
	entity.RegisterSpace(ZoneType, &Zone{})
}

// Owner is told about the end of the encounter, usually the building the zone belongs to
type Owner interface {
	// ZoneVictory is called once the victory celebration is over. victors always has 4 entries, padded with nil IDs.
	ZoneVictory(z *Zone, victors []common.EntityID)
	// ZoneReset is called when the last toon left and the zone went back to off
	ZoneReset(z *Zone)
}

// Params describes the building the zone plays
type Params struct {
	Hood             string
	Dept             suit.Dept
	NumFloors        int
	LevelRange       suit.Range
	BossLevelRange   suit.Range
	GuardsPerSection suit.Range
}

// ParamsFromConfig converts a building config
func ParamsFromConfig(bc *config.BuildingConfig) Params {
	return Params{
		Hood:             bc.Hood,
		Dept:             suit.Dept(bc.Dept),
		NumFloors:        bc.Floors,
		LevelRange:       suit.Range{Min: bc.LevelRange[0], Max: bc.LevelRange[1]},
		BossLevelRange:   suit.Range{Min: bc.BossLevelRange[0], Max: bc.BossLevelRange[1]},
		GuardsPerSection: suit.Range{Min: bc.GuardsPerSecMin, Max: bc.GuardsPerSecMax},
	}
}

func (p Params) floor(floor int) spawner.FloorParams {
	return spawner.FloorParams{
		Floor:            floor,
		NumFloors:        p.NumFloors,
		Dept:             p.Dept,
		LevelRange:       p.LevelRange,
		BossLevelRange:   p.BossLevelRange,
		GuardsPerSection: p.GuardsPerSection,
	}
}

// Deps is everything a zone needs from the process
type Deps struct {
	Params Params
	// Battle defaults to config.DefaultBattleConfig
	Battle *config.BattleConfig
	Levels *level.Loader
	// Quests may be nil, rewards are then only sent to the clients
	Quests *quest.Manager
	Owner  Owner
	// Rng defaults to a time seeded source
	Rng *rand.Rand
}

// Zone is the space of one cog building encounter
type Zone struct {
	entity.Space

	params Params
	battle config.BattleConfig
	levels *level.Loader
	quests *quest.Manager
	owner  Owner
	rng    *rand.Rand

	fsm      *fsm.FSM
	bus      *pubsub.Bus
	world    *physics.World
	registry *rules.Registry
	resolver *attack.Resolver

	currentFloor int
	floorName    string
	plan         *spawner.FloorPlan
	visited      common.StringSet
	floorStarted bool
	elevators    [2]string
	tauntSuit    common.EntityID

	watchers common.EntityIDSet
	ready    common.EntityIDSet
	loaded   common.EntityIDSet

	guards         map[common.EntityID]*avatar.Suit
	hpZero         common.EntityIDSet
	floorGuards    *LogicCounter
	sectionGuards  map[int]*LogicCounter
	activeSections map[int]bool
	counters       map[string]*LogicCounter
	floorSubs      []pubsub.SubID
	sections       *sectionTracker

	encounterID string
	rewarded    common.EntityIDSet
	deleting    bool
}

// OnSpaceInit creates the state machine and the per zone services
func (z *Zone) OnSpaceInit() {
	z.battle = config.DefaultBattleConfig()
	z.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	z.bus = pubsub.NewBus()
	z.world = physics.NewWorld()
	z.registry = rules.NewRegistry(rules.CogOfficeRules{Zone: z})
	z.resolver = &attack.Resolver{Caster: z.world, Roster: z, Rules: z.registry, Sounds: z}
	z.watchers = common.EntityIDSet{}
	z.ready = common.EntityIDSet{}
	z.loaded = common.EntityIDSet{}
	z.rewarded = common.EntityIDSet{}
	z.fsm = z.newFSM()
	z.clearFloor()
}

// Setup binds the zone to its building. It must be called before any toon enters.
func (z *Zone) Setup(deps Deps) error {
	p := deps.Params
	if p.NumFloors < 1 {
		return errors.Errorf("%s: building %s has %d floors", z, p.Hood, p.NumFloors)
	}
	if !p.Dept.IsValid() {
		return errors.Errorf("%s: building %s has unknown department %q", z, p.Hood, string(p.Dept))
	}
	if deps.Levels == nil {
		return errors.Errorf("%s: no level loader", z)
	}
	z.params = p
	z.levels = deps.Levels
	z.quests = deps.Quests
	z.owner = deps.Owner
	if deps.Battle != nil {
		z.battle = *deps.Battle
	}
	if deps.Rng != nil {
		z.rng = deps.Rng
	}
	return nil
}

// Params returns the building the zone plays
func (z *Zone) Params() Params { return z.params }

// Bus returns the level event bus of the zone
func (z *Zone) Bus() *pubsub.Bus { return z.bus }

// State returns the name of the current state
func (z *Zone) State() string { return z.fsm.Current() }

// History returns every state entered so far
func (z *Zone) History() []string { return z.fsm.History() }

// CurrentFloor returns the floor index, -1 before the first floor
func (z *Zone) CurrentFloor() int { return z.currentFloor }

// FloorName returns the layout of the current floor
func (z *Zone) FloorName() string { return z.floorName }

// FloorPlan returns the plan of the current floor, nil before the first floor
func (z *Zone) FloorPlan() *spawner.FloorPlan { return z.plan }

// TauntSuit returns the guard that taunts the toons during the face-off
func (z *Zone) TauntSuit() common.EntityID { return z.tauntSuit }

// ElevatorState returns the last state broadcast for the elevator
func (z *Zone) ElevatorState(index int) string { return z.elevators[index] }

// EncounterID returns the id rewards of the current run are recorded under
func (z *Zone) EncounterID() string { return z.encounterID }

// Watchers returns the toons taking part, ordered by ID
func (z *Zone) Watchers() []common.EntityID { return z.watchers.ToList() }

// Guards returns the guards alive on the floor, ordered by ID
func (z *Zone) Guards() []*avatar.Suit {
	ids := make(common.EntityIDSet, len(z.guards))
	for id := range z.guards {
		ids.Add(id)
	}
	res := make([]*avatar.Suit, 0, len(ids))
	for _, id := range ids.ToList() {
		res = append(res, z.guards[id])
	}
	return res
}

// SectionActive returns if the section's guards have been woken up
func (z *Zone) SectionActive(section int) bool { return z.activeSections[section] }

// InBattle implements rules.BattleState
func (z *Zone) InBattle() bool {
	return z.fsm.Is(StateBattle)
}

// Resolver implements avatar.Arena
func (z *Zone) Resolver() *attack.Resolver { return z.resolver }

// Registry implements avatar.Arena
func (z *Zone) Registry() *rules.Registry { return z.registry }

// Combatants implements avatar.Arena
func (z *Zone) Combatants() []attack.Combatant {
	var res []attack.Combatant
	for _, e := range z.Members() {
		if c, ok := e.I.(attack.Combatant); ok && !e.IsDestroyed() {
			res = append(res, c)
		}
	}
	return res
}

// FindCombatant implements avatar.Arena and attack.Roster
func (z *Zone) FindCombatant(id common.EntityID) (attack.Combatant, bool) {
	e, ok := z.Manager().FindEntity(id)
	if !ok || !z.Contains(e) {
		return nil, false
	}
	c, ok := e.I.(attack.Combatant)
	return c, ok
}

func (z *Zone) findToon(id common.EntityID) (*avatar.Toon, bool) {
	e, ok := z.Manager().FindEntity(id)
	if !ok {
		return nil, false
	}
	t, ok := e.I.(*avatar.Toon)
	return t, ok
}

// EmitSound implements attack.SoundEmitter
func (z *Zone) EmitSound(sound string, pos entity.Vector3, volume float64) {
	z.SendUpdate(FieldSound, sound, float32(pos.X), float32(pos.Y), float32(pos.Z), float32(volume))
}

func (z *Zone) timestamp() uint32 {
	return proto.NetworkTime(z.Now())
}

// OnEntityEnterSpace gives combatants a body and toons a seat in the encounter
func (z *Zone) OnEntityEnterSpace(e *entity.Entity) {
	if _, ok := e.I.(attack.Combatant); ok {
		z.world.SetSphere(e.ID, e.GetPosition(), AvatarRadius, physics.SurfaceFlesh, physics.MaskAvatar)
	}
	if _, ok := e.I.(*avatar.Toon); ok {
		z.watchers.Add(e.ID)
		z.sections.enter(e.ID, e.GetPosition())
		if consts.DEBUG_ZONES {
			gwlog.Debugf("%s: %s joined, %d watching", z, e, len(z.watchers))
		}
	}
}

// OnEntityMoved keeps bodies in place and activates sections toons walk into
func (z *Zone) OnEntityMoved(e *entity.Entity) {
	if z.world.HasSphere(e.ID) {
		z.world.MoveSphere(e.ID, e.GetPosition())
	}
	if _, ok := e.I.(*avatar.Toon); !ok {
		return
	}
	for _, t := range z.sections.moved(e.ID, e.GetPosition()) {
		z.checkSectionTrigger(t, e.ID)
	}
}

// OnEntityLeaveSpace removes the body and handles toons leaving the encounter
func (z *Zone) OnEntityLeaveSpace(e *entity.Entity) {
	z.world.RemoveSphere(e.ID)
	switch e.I.(type) {
	case *avatar.Toon:
		z.sections.leave(e.ID)
		z.HandleAvatarLeave(e.ID)
	case *avatar.Suit:
		delete(z.guards, e.ID)
	}
}

// HandleAvatarLeave drops the toon from the encounter. It runs for every toon leaving the zone space.
//
// The last toon leaving resets the zone, otherwise the barriers are checked again without it.
func (z *Zone) HandleAvatarLeave(id common.EntityID) {
	if !z.watchers.Contains(id) {
		return
	}
	z.watchers.Del(id)
	z.ready.Del(id)
	z.loaded.Del(id)
	gwlog.Infof("%s: toon %s left, %d watching", z, id, len(z.watchers))

	if len(z.watchers) == 0 {
		if !z.fsm.Is(StateOff) {
			z.fsm.RequestFinalState()
		}
		if z.owner != nil && !z.deleting {
			z.owner.ZoneReset(z)
		}
		return
	}
	if z.inIntermission() {
		z.checkReady()
		z.checkLoaded()
	}
}

// OnDestroy removes the guards and sends the toons out before the zone is released
func (z *Zone) OnDestroy() {
	z.deleting = true
	z.cancelTasks()
	z.clearGuards()
	for _, e := range z.Members() {
		if _, ok := e.I.(*avatar.Toon); ok {
			if z.Contains(e) {
				z.Leave(e)
			}
		} else {
			e.Destroy()
		}
	}
	gwlog.Infof("%s deleted", z)
}

// Delete releases the zone
func (z *Zone) Delete() {
	z.Destroy()
}
