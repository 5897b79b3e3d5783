package building

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/quest"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/pkg/errors"
)

// LobbyType is the space type of the lobby
const LobbyType = "Lobby"

// BuildingSpacing is the distance between two buildings along the street
const BuildingSpacing = 20

// Register registers the lobby and building types
func Register() {
	entity.RegisterSpace(LobbyType, &Lobby{})
	entity.RegisterEntity(BuildingType, &Building{})
}

// Deps is shared by every zone the buildings of a lobby create
type Deps struct {
	Battle *config.BattleConfig
	Levels *level.Loader
	Quests *quest.Manager
	Rng    *rand.Rand
}

// Lobby is the space toons wait in between encounters. It holds the buildings of every configured hood.
type Lobby struct {
	entity.Space

	deps      Deps
	buildings map[string]*Building
}

// OnSpaceInit initializes the lobby
func (l *Lobby) OnSpaceInit() {
	l.buildings = map[string]*Building{}
}

// Setup creates one building per config, ordered by hood along the street
func (l *Lobby) Setup(deps Deps, buildings map[string]*config.BuildingConfig) error {
	if deps.Levels == nil {
		return errors.Errorf("%s: no level loader", l)
	}
	l.deps = deps
	hoods := make([]string, 0, len(buildings))
	for hood := range buildings {
		hoods = append(hoods, hood)
	}
	sort.Strings(hoods)
	for i, hood := range hoods {
		key := strings.ToLower(hood)
		if _, ok := l.buildings[key]; ok {
			return errors.Errorf("%s: duplicate building %s", l, hood)
		}
		e := l.CreateEntity(BuildingType, entity.Vector3{X: entity.Coord(i * BuildingSpacing)})
		b := e.I.(*Building)
		b.setup(buildings[hood], l)
		l.buildings[key] = b
	}
	gwlog.Infof("%s: buildings of %v are open", l, hoods)
	return nil
}

// Building returns the building of the hood
func (l *Lobby) Building(hood string) (*Building, bool) {
	b, ok := l.buildings[strings.ToLower(hood)]
	return b, ok
}

// EnterBuilding implements avatar.Lobby: the toon boards the elevator of the building of the hood. Toons boarding
// the same building within the boarding time enter one zone together.
func (l *Lobby) EnterBuilding(t *avatar.Toon, hood string) error {
	if !l.Contains(&t.Entity) {
		return errors.Errorf("%s: %s is not in the lobby", l, t)
	}
	b, ok := l.Building(hood)
	if !ok {
		return errors.Errorf("%s: no building in %s", l, hood)
	}
	for _, other := range l.buildings {
		if other != b && other.isBoarding(t) {
			return errors.Errorf("%s: %s is boarding %s", l, t, other)
		}
	}
	return b.board(t)
}

// ReclaimBuildings gives every toon building back to the cogs and returns how many were reclaimed
func (l *Lobby) ReclaimBuildings() int {
	hoods := make([]string, 0, len(l.buildings))
	for hood := range l.buildings {
		hoods = append(hoods, hood)
	}
	sort.Strings(hoods)

	n := 0
	for _, hood := range hoods {
		b := l.buildings[hood]
		if b.State() != StateToon {
			continue
		}
		if err := b.Reclaim(); err != nil {
			gwlog.Errorf("%s: reclaim %s failed: %v", l, b, err)
			continue
		}
		n++
	}
	if n > 0 {
		gwlog.Infof("%s: cogs reclaimed %d buildings", l, n)
	}
	return n
}

// OnEntityEnterSpace lets toons reach the buildings
func (l *Lobby) OnEntityEnterSpace(e *entity.Entity) {
	if t, ok := e.I.(*avatar.Toon); ok {
		t.SetLobby(l)
	}
}

// OnEntityLeaveSpace takes toons out of the elevators they were waiting in
func (l *Lobby) OnEntityLeaveSpace(e *entity.Entity) {
	if t, ok := e.I.(*avatar.Toon); ok {
		for _, b := range l.buildings {
			b.unboard(t)
		}
	}
}
