// Package building implements the cog buildings toons enter from the lobby.
//
// A building owns at most one battle zone at a time. Its own state machine follows the encounter from the outside:
// a cog building (suit) runs zones until one is won, waits for the victors, turns back into a toon building and
// stays one until the cogs reclaim it.
package building

import (
	"time"

	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/fsm"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/pkg/errors"
)

// BuildingType is the entity type of buildings
const BuildingType = "Building"

// Building states
const (
	StateSuit           = "suit"
	StateWaitForVictors = "waitForVictors"
	StateBecomingToon   = "becomingToon"
	StateToon           = "toon"
)

// Replicated fields of buildings
const (
	FieldState    = "setState"
	FieldVictors  = "setVictors"
	FieldHood     = "setHood"
	FieldBoarding = "setBoarding"
)

// MaxGroupSize is the largest group that can enter a building together
const MaxGroupSize = 4

// BecomingToonTime is the length of the building's transformation back into a toon building
var BecomingToonTime = 3 * time.Second

const (
	taskBecomeToon = "becomeToon"
	taskDepart     = "depart"
)

// Building is a cog building of a hood
type Building struct {
	entity.Entity

	cfg     *config.BuildingConfig
	params  zone.Params
	lobby   *Lobby
	fsm     *fsm.FSM
	zone    *zone.Zone
	victors []common.EntityID
	won     int

	// toons waiting in the elevator for the next encounter
	boarding []*avatar.Toon
}

// OnInit creates the state machine
func (b *Building) OnInit() {
	state := func(name string, enter func(), next ...string) *fsm.State {
		return &fsm.State{
			Name: name,
			Enter: func() {
				b.Replicate(FieldState, name, proto.NetworkTime(b.Now()))
				if enter != nil {
					enter()
				}
			},
			Next: next,
		}
	}
	b.fsm = fsm.New(BuildingType, []*fsm.State{
		state(StateSuit, nil, StateWaitForVictors),
		state(StateWaitForVictors, b.enterWaitForVictors, StateBecomingToon),
		state(StateBecomingToon, b.enterBecomingToon, StateToon),
		state(StateToon, nil, StateSuit),
	}, StateSuit, StateToon)
}

func (b *Building) setup(cfg *config.BuildingConfig, lobby *Lobby) {
	b.cfg = cfg
	b.params = zone.ParamsFromConfig(cfg)
	b.lobby = lobby
	b.Replicate(FieldHood, cfg.Hood, cfg.Dept, cfg.Floors)
}

// Hood returns the hood of the building
func (b *Building) Hood() string { return b.cfg.Hood }

// State returns the building state
func (b *Building) State() string { return b.fsm.Current() }

// Zone returns the running zone, nil if none
func (b *Building) Zone() *zone.Zone { return b.zone }

// Victors returns the toons who cleared the building last, padded to 4 entries
func (b *Building) Victors() []common.EntityID {
	return append([]common.EntityID(nil), b.victors...)
}

// Won returns how many times the building was cleared
func (b *Building) Won() int { return b.won }

// CreateZone starts an encounter for the group. The toons leave the lobby for the new zone. A zone that can not
// be set up is deleted and the toons stay in the lobby.
func (b *Building) CreateZone(toons []*avatar.Toon) (*zone.Zone, error) {
	if len(toons) == 0 || len(toons) > MaxGroupSize {
		return nil, errors.Errorf("%s: a group has 1 to %d toons, got %d", b, MaxGroupSize, len(toons))
	}
	if !b.fsm.Is(StateSuit) {
		return nil, errors.Errorf("%s: building is %s", b, b.State())
	}
	if b.zone != nil {
		return nil, errors.Errorf("%s: encounter in progress", b)
	}

	sp := b.Manager().CreateSpace(zone.ZoneType)
	z := sp.I.(*zone.Zone)
	deps := b.lobby.deps
	err := z.Setup(zone.Deps{
		Params: b.params,
		Battle: deps.Battle,
		Levels: deps.Levels,
		Quests: deps.Quests,
		Owner:  b,
		Rng:    deps.Rng,
	})
	if err != nil {
		z.Delete()
		return nil, errors.Wrapf(err, "create zone of %s", b.cfg.Hood)
	}

	b.zone = z
	for _, t := range toons {
		z.Enter(&t.Entity, t.GetPosition())
	}
	if err := z.AvatarsReady(); err != nil {
		b.zone = nil
		b.releaseToons(z)
		z.Delete()
		return nil, errors.Wrapf(err, "start zone of %s", b.cfg.Hood)
	}
	gwlog.Infof("%s: %d toons entered %s", b, len(toons), z)
	return z, nil
}

// Boarding returns the toons waiting to enter together
func (b *Building) Boarding() []common.EntityID {
	ids := make([]common.EntityID, len(b.boarding))
	for i, t := range b.boarding {
		ids[i] = t.ID
	}
	return ids
}

func (b *Building) isBoarding(t *avatar.Toon) bool {
	for _, o := range b.boarding {
		if o == t {
			return true
		}
	}
	return false
}

// board adds the toon to the group waiting for the elevator. The first toon starts the boarding time, a full group
// or a zero boarding time departs at once.
func (b *Building) board(t *avatar.Toon) error {
	if !b.fsm.Is(StateSuit) {
		return errors.Errorf("%s: building is %s", b, b.State())
	}
	if b.zone != nil {
		return errors.Errorf("%s: encounter in progress", b)
	}
	if b.isBoarding(t) {
		return errors.Errorf("%s: %s is already boarding", b, t)
	}
	b.boarding = append(b.boarding, t)
	b.replicateBoarding()

	var wait time.Duration
	if battle := b.lobby.deps.Battle; battle != nil {
		wait = battle.BoardingTime
	}
	if len(b.boarding) >= MaxGroupSize || wait <= 0 {
		return b.depart()
	}
	if len(b.boarding) == 1 {
		b.AddNamedCallback(taskDepart, wait, func() {
			b.depart()
		})
	}
	gwlog.Infof("%s: %s boarded, %d waiting", b, t, len(b.boarding))
	return nil
}

// unboard takes the toon out of the waiting group, the last one cancels the departure
func (b *Building) unboard(t *avatar.Toon) {
	for i, o := range b.boarding {
		if o != t {
			continue
		}
		b.boarding = append(b.boarding[:i], b.boarding[i+1:]...)
		if len(b.boarding) == 0 {
			b.CancelNamedCallback(taskDepart)
		}
		b.replicateBoarding()
		return
	}
}

// depart starts the encounter of the waiting group
func (b *Building) depart() error {
	b.CancelNamedCallback(taskDepart)
	group := b.boarding
	b.boarding = nil
	b.replicateBoarding()
	if len(group) == 0 {
		return nil
	}
	_, err := b.CreateZone(group)
	if err != nil {
		gwlog.Errorf("%s: group of %d could not depart: %v", b, len(group), err)
	}
	return err
}

func (b *Building) replicateBoarding() {
	ids := make([]interface{}, len(b.boarding))
	for i, t := range b.boarding {
		ids[i] = int(t.ID)
	}
	b.Replicate(FieldBoarding, ids...)
}

// releaseToons sends every toon of the zone back to the lobby, in front of the building
func (b *Building) releaseToons(z *zone.Zone) {
	for _, e := range z.Members() {
		if _, ok := e.I.(*avatar.Toon); ok {
			b.lobby.Enter(e, b.GetPosition())
		}
	}
}

// ZoneVictory implements zone.Owner
func (b *Building) ZoneVictory(z *zone.Zone, victors []common.EntityID) {
	if z != b.zone {
		gwlog.Warnf("%s: victory of unknown %s", b, z)
		return
	}
	b.victors = victors
	b.zone = nil
	b.releaseToons(z)
	z.Delete()
	if err := b.fsm.Request(StateWaitForVictors); err != nil {
		gwlog.Errorf("%s: %v", b, err)
	}
	if err := b.fsm.Request(StateBecomingToon); err != nil {
		gwlog.Errorf("%s: %v", b, err)
	}
}

// ZoneReset implements zone.Owner. The zone is gone once every toon left it.
func (b *Building) ZoneReset(z *zone.Zone) {
	if z != b.zone {
		return
	}
	gwlog.Infof("%s: %s was abandoned", b, z)
	b.zone = nil
	z.Delete()
}

func (b *Building) enterWaitForVictors() {
	b.won++
	ids := make([]interface{}, len(b.victors))
	for i, id := range b.victors {
		ids[i] = int(id)
	}
	b.Replicate(FieldVictors, ids...)
}

func (b *Building) enterBecomingToon() {
	b.AddNamedCallback(taskBecomeToon, BecomingToonTime, func() {
		if err := b.fsm.Request(StateToon); err != nil {
			gwlog.Errorf("%s: %v", b, err)
		}
	})
}

// Reclaim turns a toon building back into a cog building
func (b *Building) Reclaim() error {
	return b.fsm.Request(StateSuit)
}

// OnDestroy deletes the running zone
func (b *Building) OnDestroy() {
	b.CancelNamedCallback(taskDepart)
	b.boarding = nil
	if z := b.zone; z != nil {
		b.zone = nil
		b.releaseToons(z)
		z.Delete()
	}
}
