// Package mirror keeps the client side projection of a battle: the entities a client sees and their replicated
// state, rebuilt from the FieldUpdates the server pushes.
//
// A mirror never decides anything. Attack state machines run with the client executor and only apply the actions
// and ammo the server replicates.
package mirror

import (
	"fmt"
	"sort"
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/building"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/pkg/errors"
	"github.com/xiaonanln/typeconv"
)

// Entity is an entity visible to the client
type Entity struct {
	ID       common.EntityID
	Type     string
	IsPlayer bool
	Position entity.Vector3
	// Fields holds the last args of every replicated field
	Fields map[string][]interface{}
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s<%s>", e.Type, e.ID)
}

// Listener receives the changes of the mirror as they are applied
type Listener interface {
	OnZoneState(z *Zone, prev string)
	OnAttackAction(a *Avatar, kind attack.Kind, action attack.Action)
}

// World is everything one client sees
type World struct {
	clock    func() time.Time
	listener Listener

	entities map[common.EntityID]*Entity
	zones    map[common.EntityID]*Zone
	avatars  map[common.EntityID]*Avatar
}

// NewWorld creates an empty mirror. clock is the local clock used to compensate replicated timestamps, nil for the
// wall clock.
func NewWorld(clock func() time.Time, listener Listener) *World {
	if clock == nil {
		clock = time.Now
	}
	return &World{
		clock:    clock,
		listener: listener,
		entities: map[common.EntityID]*Entity{},
		zones:    map[common.EntityID]*Zone{},
		avatars:  map[common.EntityID]*Avatar{},
	}
}

// Entity returns the entity of the ID
func (w *World) Entity(id common.EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Zone returns the zone the client is in, nil if none
func (w *World) Zone() *Zone {
	for _, z := range w.zones {
		return z
	}
	return nil
}

// Avatar returns the avatar of the ID
func (w *World) Avatar(id common.EntityID) (*Avatar, bool) {
	a, ok := w.avatars[id]
	return a, ok
}

// Avatars returns the visible toons and suits, by ID
func (w *World) Avatars() []*Avatar {
	res := make([]*Avatar, 0, len(w.avatars))
	for _, a := range w.avatars {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Player returns the avatar bound to this client, nil before it is created
func (w *World) Player() *Avatar {
	for id, a := range w.avatars {
		if w.entities[id].IsPlayer {
			return a
		}
	}
	return nil
}

// Apply applies one update pushed by the server
func (w *World) Apply(update *proto.FieldUpdate) error {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("mirror <<< %s", update)
	}
	switch update.Type {
	case proto.MT_CREATE_ENTITY_ON_CLIENT:
		return w.create(update)
	case proto.MT_DESTROY_ENTITY_ON_CLIENT:
		w.destroy(update.EntityID)
		return nil
	case proto.MT_FIELD_UPDATE_ON_CLIENT:
		return w.field(update)
	}
	return errors.Errorf("unknown update type %d", update.Type)
}

func (w *World) create(update *proto.FieldUpdate) error {
	if _, ok := w.entities[update.EntityID]; ok {
		return nil // already visible through another space
	}
	e := &Entity{ID: update.EntityID, Type: update.EntityType, Fields: map[string][]interface{}{}}
	if len(update.Args) == 4 {
		e.IsPlayer, _ = update.Args[0].(bool)
		e.Position = entity.Vector3{
			X: entity.Coord(toFloat(update.Args[1])),
			Y: entity.Coord(toFloat(update.Args[2])),
			Z: entity.Coord(toFloat(update.Args[3])),
		}
	}
	w.entities[e.ID] = e

	switch e.Type {
	case zone.ZoneType:
		w.zones[e.ID] = newZone(w, e)
	case avatar.ToonType, avatar.SuitType:
		w.avatars[e.ID] = newAvatar(w, e)
	}
	return nil
}

func (w *World) destroy(id common.EntityID) {
	delete(w.entities, id)
	delete(w.zones, id)
	delete(w.avatars, id)
}

func (w *World) field(update *proto.FieldUpdate) error {
	e, ok := w.entities[update.EntityID]
	if !ok {
		return errors.Errorf("update %s of unknown entity", update)
	}
	e.Fields[update.Field] = update.Args

	var err error
	if z, ok := w.zones[e.ID]; ok {
		err = z.apply(update.Field, update.Args)
	} else if a, ok := w.avatars[e.ID]; ok {
		err = a.apply(update.Field, update.Args)
	}
	return errors.Wrapf(err, "apply %s", update)
}

// Zone is the mirror of a battle zone
type Zone struct {
	*Entity
	w *World

	State        string
	stateTS      uint32
	faceoffTS    uint32
	Floor        int
	NumFloors    int
	FloorName    string
	TauntSuit    common.EntityID
	Taunt        int
	Elevators    [2]string
	Sections     []int
	InElevator   bool
	LastSound    string
	stateHistory []string
}

func newZone(w *World, e *Entity) *Zone {
	return &Zone{
		Entity:    e,
		w:         w,
		State:     zone.StateOff,
		Floor:     -1,
		Elevators: [2]string{zone.ElevatorClosed, zone.ElevatorClosed},
	}
}

// StateElapsed returns how long the zone has been in its state, compensated for the latency of the broadcast
func (z *Zone) StateElapsed() time.Duration {
	if z.stateTS == 0 {
		return 0
	}
	return proto.ElapsedSince(z.stateTS, z.w.clock())
}

// FaceoffElapsed returns how long ago the face-off began, 0 before the first one
func (z *Zone) FaceoffElapsed() time.Duration {
	if z.faceoffTS == 0 {
		return 0
	}
	return proto.ElapsedSince(z.faceoffTS, z.w.clock())
}

// History returns the states the mirror went through
func (z *Zone) History() []string {
	return append([]string(nil), z.stateHistory...)
}

func (z *Zone) apply(field string, args []interface{}) error {
	switch field {
	case zone.FieldState:
		if len(args) != 2 {
			return errors.Errorf("want name and timestamp, got %v", args)
		}
		prev := z.State
		z.State = toString(args[0])
		z.stateTS = uint32(typeconv.Int(args[1]))
		z.stateHistory = append(z.stateHistory, z.State)
		if z.State == zone.StateBattle {
			z.InElevator = false
		}
		if z.w.listener != nil {
			z.w.listener.OnZoneState(z, prev)
		}
	case zone.FieldCurrentFloor:
		if len(args) != 3 {
			return errors.Errorf("want floor, floor count and name, got %v", args)
		}
		z.Floor = int(typeconv.Int(args[0]))
		z.NumFloors = int(typeconv.Int(args[1]))
		z.FloorName = toString(args[2])
		z.Sections = nil
	case zone.FieldTauntSuit:
		if len(args) != 1 {
			return errors.Errorf("want suit, got %v", args)
		}
		z.TauntSuit = common.EntityID(typeconv.Int(args[0]))
	case zone.FieldFaceoff:
		if len(args) != 3 {
			return errors.Errorf("want taunt, suit and timestamp, got %v", args)
		}
		z.Taunt = int(typeconv.Int(args[0]))
		z.TauntSuit = common.EntityID(typeconv.Int(args[1]))
		z.faceoffTS = uint32(typeconv.Int(args[2]))
	case zone.FieldElevatorState:
		if len(args) != 3 {
			return errors.Errorf("want index, state and timestamp, got %v", args)
		}
		i := int(typeconv.Int(args[0]))
		if i < 0 || i >= len(z.Elevators) {
			return errors.Errorf("elevator %d out of range", i)
		}
		z.Elevators[i] = toString(args[1])
	case zone.FieldSectionActivated:
		if len(args) != 1 {
			return errors.Errorf("want section, got %v", args)
		}
		z.Sections = append(z.Sections, int(typeconv.Int(args[0])))
	case zone.FieldPutToonsInElevator:
		z.InElevator = true
	case zone.FieldSound:
		if len(args) > 0 {
			z.LastSound = toString(args[0])
		}
	}
	return nil
}

// Avatar is the mirror of a toon or a suit
type Avatar struct {
	*Entity
	w *World

	Name      string
	Health    int
	MaxHealth int
	Equipped  attack.Kind
	Activated bool
	Target    common.EntityID
	attacks   map[attack.Kind]*attack.Attack
}

func newAvatar(w *World, e *Entity) *Avatar {
	return &Avatar{Entity: e, w: w, attacks: map[attack.Kind]*attack.Attack{}}
}

// Attack returns the mirrored attack of the kind, created on its first replicated change
func (a *Avatar) Attack(kind attack.Kind) (*attack.Attack, bool) {
	atk, ok := a.attacks[kind]
	return atk, ok
}

func (a *Avatar) attack(kind attack.Kind) (*attack.Attack, error) {
	if atk, ok := a.attacks[kind]; ok {
		return atk, nil
	}
	def, ok := attack.GetDefinition(kind)
	if !ok {
		return nil, errors.Errorf("unknown attack kind %d", kind)
	}
	atk := attack.New(def, nil, attack.ClientExecutor{
		OnAction: func(kind attack.Kind, action attack.Action) {
			if a.w.listener != nil {
				a.w.listener.OnAttackAction(a, kind, action)
			}
		},
	})
	a.attacks[kind] = atk
	return atk, nil
}

func (a *Avatar) apply(field string, args []interface{}) error {
	switch field {
	case avatar.FieldName, avatar.FieldEquippedAttack, avatar.FieldActivated, avatar.FieldTarget:
		if len(args) != 1 {
			return errors.Errorf("want one value, got %v", args)
		}
	}
	switch field {
	case avatar.FieldHealth:
		if len(args) != 2 {
			return errors.Errorf("want health and max health, got %v", args)
		}
		a.Health = int(typeconv.Int(args[0]))
		a.MaxHealth = int(typeconv.Int(args[1]))
	case avatar.FieldName:
		a.Name = toString(args[0])
	case avatar.FieldEquippedAttack:
		a.Equipped = attack.Kind(typeconv.Int(args[0]))
	case avatar.FieldActivated:
		a.Activated, _ = args[0].(bool)
	case avatar.FieldTarget:
		a.Target = common.EntityID(typeconv.Int(args[0]))
	case attack.FieldAttackState:
		if len(args) != 2 {
			return errors.Errorf("want kind and action, got %v", args)
		}
		atk, err := a.attack(attack.Kind(typeconv.Int(args[0])))
		if err != nil {
			return err
		}
		atk.ApplyState(attack.Action(typeconv.Int(args[1])))
	case attack.FieldAttackAmmo:
		if len(args) != 7 {
			return errors.Errorf("want kind and 6 ammo values, got %v", args)
		}
		atk, err := a.attack(attack.Kind(typeconv.Int(args[0])))
		if err != nil {
			return err
		}
		ammo, err := attack.AmmoFromArgs(args[1:])
		if err != nil {
			return err
		}
		atk.ApplyAmmo(ammo)
	}
	return nil
}

// Building is the state of a building seen from the lobby
type Building struct {
	Hood    string
	State   string
	Victors []common.EntityID

	// Boarding lists the toons waiting in the elevator
	Boarding []common.EntityID
}

// Buildings returns the buildings visible to the client, by hood
func (w *World) Buildings() map[string]*Building {
	res := map[string]*Building{}
	for _, e := range w.entities {
		if e.Type != building.BuildingType {
			continue
		}
		hood, ok := e.Fields[building.FieldHood]
		if !ok || len(hood) == 0 {
			continue
		}
		b := &Building{Hood: toString(hood[0]), State: building.StateSuit}
		if st := e.Fields[building.FieldState]; len(st) > 0 {
			b.State = toString(st[0])
		}
		for _, id := range e.Fields[building.FieldVictors] {
			b.Victors = append(b.Victors, common.EntityID(typeconv.Int(id)))
		}
		for _, id := range e.Fields[building.FieldBoarding] {
			b.Boarding = append(b.Boarding, common.EntityID(typeconv.Int(id)))
		}
		res[b.Hood] = b
	}
	return res
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func toFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float32:
		return float64(f)
	case float64:
		return f
	}
	return float64(typeconv.Int(v))
}
