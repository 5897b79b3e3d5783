package zone

import (
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/suit"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/fsm"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Zone states
const (
	StateOff               = "off"
	StateFloorIntermission = "floorIntermission"
	// StateBldgComplete is an intermission entered when the floor was completed by request instead of by defeating
	// every guard
	StateBldgComplete = "bldgComplete"
	StateRideElevator = "rideElevator"
	StateFaceOff      = "faceOff"
	StateBattle       = "battle"
	StateVictory      = "victory"
)

// Replicated fields of zones
const (
	FieldState              = "setState"
	FieldCurrentFloor       = "setCurrentFloor"
	FieldTauntSuit          = "setTauntSuitId"
	FieldFaceoff            = "doFaceoff"
	FieldElevatorState      = "setElevatorState"
	FieldSound              = "emitSound"
	FieldPutToonsInElevator = "putToonsInElevator"
	FieldSectionActivated   = "setSectionActivated"
)

// Elevator states
const (
	ElevatorClosed  = "closed"
	ElevatorOpening = "opening"
	ElevatorClosing = "closing"
)

// Floor events, published as "<floor info targetname>.<event>"
const (
	EventFloorBegin     = "OnFloorBegin"
	EventFloorEnd       = "OnFloorEnd"
	EventCogGroupDead   = "OnCogGroupDead"
	EventBattleComplete = "OnBattleComplete"
)

const (
	taskRideElevator = "rideElevator"
	taskFaceOff      = "faceOff"
	taskVictory      = "victory"
)

func (z *Zone) newFSM() *fsm.FSM {
	state := func(name string, enter, exit func(), next ...string) *fsm.State {
		return &fsm.State{
			Name: name,
			Enter: func() {
				z.SendUpdate(FieldState, name, z.timestamp())
				enter()
			},
			Exit: exit,
			Next: next,
		}
	}
	return fsm.New(ZoneType, []*fsm.State{
		state(StateOff, z.enterOff, nil, StateFloorIntermission),
		state(StateFloorIntermission, z.enterFloorIntermission, nil, StateRideElevator, StateOff),
		state(StateBldgComplete, z.enterFloorIntermission, nil, StateFloorIntermission, StateRideElevator, StateOff),
		state(StateRideElevator, z.enterRideElevator, z.exitRideElevator, StateFaceOff, StateOff),
		state(StateFaceOff, z.enterFaceOff, z.exitFaceOff, StateBattle, StateOff),
		state(StateBattle, z.enterBattle, z.exitBattle, StateFloorIntermission, StateVictory, StateBldgComplete, StateOff),
		state(StateVictory, z.enterVictory, z.exitVictory, StateOff),
	}, StateOff, StateOff)
}

func (z *Zone) request(to string) error {
	if consts.DEBUG_ZONES {
		gwlog.Debugf("%s: %s -> %s", z, z.fsm.Current(), to)
	}
	err := z.fsm.Request(to)
	if err != nil {
		gwlog.Errorf("%s: %v", z, err)
	}
	return err
}

func (z *Zone) inIntermission() bool {
	return z.fsm.Is(StateFloorIntermission, StateBldgComplete)
}

func (z *Zone) cancelTasks() {
	z.CancelNamedCallback(taskRideElevator)
	z.CancelNamedCallback(taskFaceOff)
	z.CancelNamedCallback(taskVictory)
}

func (z *Zone) setElevatorState(index int, state string) {
	z.elevators[index] = state
	z.SendUpdate(FieldElevatorState, index, state, z.timestamp())
}

// AvatarsReady starts the encounter with the toons in the zone. The first floor is loaded at once, the zone then
// waits for every toon to have loaded it.
func (z *Zone) AvatarsReady() error {
	if !z.fsm.Is(StateOff) {
		return errors.Errorf("%s: already running (%s)", z, z.State())
	}
	if z.levels == nil {
		return errors.Errorf("%s: not set up", z)
	}
	if len(z.watchers) == 0 {
		return errors.Errorf("%s: no toons", z)
	}

	z.encounterID = uuid.NewString()
	z.rewarded = common.EntityIDSet{}
	if err := z.request(StateFloorIntermission); err != nil {
		return err
	}
	for id := range z.watchers {
		z.ready.Add(id)
	}
	if err := z.startFloor(0); err != nil {
		z.fsm.RequestFinalState()
		return err
	}
	gwlog.Infof("%s: encounter %s of %s started with %v", z, z.encounterID, z.params.Hood, z.Watchers())
	return nil
}

// ReadyForNextFloor implements avatar.Arena
func (z *Zone) ReadyForNextFloor(t *avatar.Toon) {
	if !z.watchers.Contains(t.ID) {
		gwlog.Warnf("%s: %s is not in the encounter", z, t)
		return
	}
	if !z.inIntermission() || z.floorStarted {
		if consts.DEBUG_ZONES {
			gwlog.Debugf("%s: ignoring ready from %s in %s", z, t, z.State())
		}
		return
	}
	z.ready.Add(t.ID)
	z.checkReady()
}

// LoadedMap implements avatar.Arena
func (z *Zone) LoadedMap(t *avatar.Toon) {
	if !z.watchers.Contains(t.ID) {
		gwlog.Warnf("%s: %s is not in the encounter", z, t)
		return
	}
	if !z.inIntermission() || !z.floorStarted {
		if consts.DEBUG_ZONES {
			gwlog.Debugf("%s: ignoring loaded from %s in %s", z, t, z.State())
		}
		return
	}
	z.loaded.Add(t.ID)
	z.checkLoaded()
}

func (z *Zone) allWatchers(set common.EntityIDSet) bool {
	if len(z.watchers) == 0 {
		return false
	}
	for id := range z.watchers {
		if !set.Contains(id) {
			return false
		}
	}
	return true
}

func (z *Zone) checkReady() {
	if !z.inIntermission() || z.floorStarted || !z.allWatchers(z.ready) {
		return
	}
	// a completed building rejoins the regular intermission before the next floor
	if z.fsm.Is(StateBldgComplete) {
		if err := z.request(StateFloorIntermission); err != nil {
			z.abort()
			return
		}
	}
	if err := z.startFloor(z.currentFloor + 1); err != nil {
		gwlog.Errorf("%s: %v", z, err)
		z.abort()
	}
}

func (z *Zone) checkLoaded() {
	if !z.inIntermission() || !z.floorStarted || !z.allWatchers(z.loaded) {
		return
	}
	pos := z.plan.Elevators[0].Origin
	for _, id := range z.watchers.ToList() {
		if t, ok := z.findToon(id); ok {
			t.SetPosition(pos)
		}
	}
	z.SendUpdate(FieldPutToonsInElevator, 0)
	z.request(StateRideElevator)
}

// abort gives up the encounter after a fault that makes the zone unplayable
func (z *Zone) abort() {
	z.fsm.RequestFinalState()
	if z.owner != nil && !z.deleting {
		z.owner.ZoneReset(z)
	}
}

// CompleteFloor ends the battle on the current floor without defeating the remaining guards
func (z *Zone) CompleteFloor() error {
	if !z.fsm.Is(StateBattle) {
		return errors.Errorf("%s: can not complete the floor in %s", z, z.State())
	}
	z.clearGuards()
	if z.currentFloor >= z.params.NumFloors-1 {
		return z.request(StateVictory)
	}
	return z.request(StateBldgComplete)
}

func (z *Zone) floorCleared() {
	if !z.fsm.Is(StateBattle) {
		return
	}
	gwlog.Infof("%s: floor %d (%s) cleared", z, z.currentFloor, z.floorName)
	if z.currentFloor < z.params.NumFloors-1 {
		z.request(StateFloorIntermission)
	} else {
		z.request(StateVictory)
	}
}

func (z *Zone) enterOff() {
	z.resetEverything()
}

func (z *Zone) enterFloorIntermission() {
	ended := z.floorStarted && z.currentFloor >= 0
	z.ready = common.EntityIDSet{}
	z.loaded = common.EntityIDSet{}
	z.floorStarted = false
	if ended {
		z.publish(EventFloorEnd, z.currentFloor)
		z.setElevatorState(1, ElevatorOpening)
		z.setElevatorState(0, ElevatorClosed)
	}
}

func (z *Zone) enterRideElevator() {
	z.AddNamedCallback(taskRideElevator, z.battle.RideElevatorTime, func() {
		taunt := suit.PickTaunt(z.params.Dept, z.rng)
		z.SendUpdate(FieldFaceoff, taunt, int(z.tauntSuit), z.timestamp())
		z.request(StateFaceOff)
	})
}

func (z *Zone) exitRideElevator() {
	z.CancelNamedCallback(taskRideElevator)
}

func (z *Zone) enterFaceOff() {
	z.AddNamedCallback(taskFaceOff, z.battle.FaceOffTime, func() {
		z.request(StateBattle)
	})
}

func (z *Zone) exitFaceOff() {
	z.CancelNamedCallback(taskFaceOff)
}

func (z *Zone) enterBattle() {
	z.setElevatorState(0, ElevatorClosing)
	z.setElevatorState(1, ElevatorClosed)
	z.publish(EventFloorBegin, z.currentFloor)
	z.activateSection(0)
	for _, t := range z.sections.triggers {
		for _, id := range t.nearby.ToList() {
			z.checkSectionTrigger(t, id)
		}
	}
}

func (z *Zone) exitBattle() {
	for _, s := range z.Guards() {
		s.Deactivate()
	}
}

func (z *Zone) enterVictory() {
	gwlog.Infof("%s: building %s defeated by %v", z, z.params.Hood, z.Watchers())
	z.publish(EventBattleComplete, z.currentFloor)
	z.grantRewards()
	z.AddNamedCallback(taskVictory, z.battle.VictoryTime, func() {
		victors := z.victors()
		if z.owner != nil {
			z.owner.ZoneVictory(z, victors)
		}
		if !z.IsDestroyed() && z.fsm.Is(StateVictory) {
			z.request(StateOff)
		}
	})
}

func (z *Zone) exitVictory() {
	z.CancelNamedCallback(taskVictory)
}

// victors returns the toons of the encounter padded to 4 entries
func (z *Zone) victors() []common.EntityID {
	victors := z.watchers.ToList()
	for len(victors) < 4 {
		victors = append(victors, 0)
	}
	return victors
}

func (z *Zone) resetEverything() {
	z.cancelTasks()
	z.clearGuards()
	z.clearProjectiles()
	z.clearFloor()
	z.ready = common.EntityIDSet{}
	z.loaded = common.EntityIDSet{}
	z.rewarded = common.EntityIDSet{}
	if consts.DEBUG_ZONES {
		gwlog.Debugf("%s: reset", z)
	}
}
