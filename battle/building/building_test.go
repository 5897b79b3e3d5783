package building

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/cogoffice/battlezone/engine/sched"
)

func init() {
	avatar.Register()
	zone.Register()
	Register()
}

type testLobby struct {
	t      *testing.T
	s      *sched.ManualScheduler
	rec    *entity.UpdateRecorder
	mgr    *entity.Manager
	lobby  *Lobby
	battle config.BattleConfig
}

func newTestLobby(t *testing.T, buildings ...*config.BuildingConfig) *testLobby {
	s := sched.NewManual(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := entity.NewUpdateRecorder()
	mgr := entity.NewManager(s, rec)
	levels, err := level.NewLoader("")
	if err != nil {
		t.Fatal(err)
	}
	tl := &testLobby{t: t, s: s, rec: rec, mgr: mgr, battle: config.DefaultBattleConfig()}
	tl.lobby = mgr.CreateSpace(LobbyType).I.(*Lobby)
	cfgs := map[string]*config.BuildingConfig{}
	for _, bc := range buildings {
		cfgs[bc.Hood] = bc
	}
	err = tl.lobby.Setup(Deps{Battle: &tl.battle, Levels: levels, Rng: rand.New(rand.NewSource(1))}, cfgs)
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

func (tl *testLobby) addToon(name string) *avatar.Toon {
	e := tl.mgr.CreateEntity(avatar.ToonType, &tl.lobby.Space, entity.Vector3{})
	e.SetClient(entity.MakeGameClient(common.ClientID(name), tl.rec))
	t := e.I.(*avatar.Toon)
	t.Name = name
	return t
}

func (tl *testLobby) winFloor(z *zone.Zone, toons ...*avatar.Toon) {
	for _, t := range toons {
		z.LoadedMap(t)
	}
	tl.s.Advance(tl.battle.RideElevatorTime + tl.battle.FaceOffTime)
	assert.Equal(tl.t, zone.StateBattle, z.State())
	assert.Equal(tl.t, nil, z.CompleteFloor())
}

func building(hood string, floors int) *config.BuildingConfig {
	return &config.BuildingConfig{
		Hood:            hood,
		Dept:            "c",
		Floors:          floors,
		LevelRange:      [2]int{1, 3},
		BossLevelRange:  [2]int{4, 5},
		GuardsPerSecMin: 1,
		GuardsPerSecMax: 2,
	}
}

func TestLobbyBuildings(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1), building("dg", 2))
	dg, ok := tl.lobby.Building("DG")
	assert.T(t, ok)
	ttc, _ := tl.lobby.Building("ttc")
	assert.Equal(t, entity.Vector3{}, dg.GetPosition())
	assert.Equal(t, entity.Vector3{X: BuildingSpacing}, ttc.GetPosition())
	assert.Equal(t, StateSuit, ttc.State())

	toon := tl.addToon("flippy")
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(toon, "nowhere"))
}

func TestBuildingVictory(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1))
	b, _ := tl.lobby.Building("ttc")
	a := tl.addToon("a")
	c := tl.addToon("c")

	z, err := b.CreateZone([]*avatar.Toon{a, c})
	assert.Equal(t, nil, err)
	assert.Equal(t, z, b.Zone())
	assert.T(t, a.Space == &z.Space)
	_, err = b.CreateZone([]*avatar.Toon{tl.addToon("late")})
	assert.NotEqual(t, nil, err, "one encounter at a time")

	tl.winFloor(z, a, c)
	assert.Equal(t, zone.StateVictory, z.State())
	tl.s.Advance(tl.battle.VictoryTime)

	assert.T(t, z.IsDestroyed())
	assert.T(t, b.Zone() == nil)
	assert.Equal(t, []common.EntityID{a.ID, c.ID, 0, 0}, b.Victors())
	assert.Equal(t, 1, b.Won())
	assert.Equal(t, StateBecomingToon, b.State())
	assert.T(t, a.Space == &tl.lobby.Space)
	assert.Equal(t, b.GetPosition(), c.GetPosition())
	victors := tl.rec.Fields(common.ClientID("a"), FieldVictors)
	assert.Equal(t, [][]interface{}{{int(a.ID), int(c.ID), 0, 0}}, victors)

	tl.s.Advance(BecomingToonTime)
	assert.Equal(t, StateToon, b.State())
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(a, "ttc"), "toon buildings have no cogs to fight")

	assert.Equal(t, nil, b.Reclaim())
	assert.Equal(t, nil, tl.lobby.EnterBuilding(a, "ttc"))
}

func TestReclaimBuildings(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1), building("dg", 1))
	ttc, _ := tl.lobby.Building("ttc")
	dg, _ := tl.lobby.Building("dg")
	a := tl.addToon("a")

	z, err := ttc.CreateZone([]*avatar.Toon{a})
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, tl.lobby.ReclaimBuildings(), "nothing won yet")

	tl.winFloor(z, a)
	tl.s.Advance(tl.battle.VictoryTime)
	assert.Equal(t, 0, tl.lobby.ReclaimBuildings(), "still becoming a toon building")
	tl.s.Advance(BecomingToonTime)
	assert.Equal(t, StateToon, ttc.State())

	assert.Equal(t, 1, tl.lobby.ReclaimBuildings())
	assert.Equal(t, StateSuit, ttc.State())
	assert.Equal(t, StateSuit, dg.State())
	assert.Equal(t, 0, tl.lobby.ReclaimBuildings())
}

func TestAbandonedZoneIsDeleted(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 2))
	b, _ := tl.lobby.Building("ttc")
	a := tl.addToon("a")

	assert.Equal(t, nil, tl.lobby.EnterBuilding(a, "ttc"))
	tl.s.Advance(tl.battle.BoardingTime)
	z := b.Zone()
	tl.winFloor(z, a)
	assert.Equal(t, zone.StateBldgComplete, z.State())

	a.Destroy()
	assert.T(t, z.IsDestroyed())
	assert.T(t, b.Zone() == nil)
	assert.Equal(t, StateSuit, b.State())
	assert.Equal(t, 0, len(tl.mgr.Entities(avatar.SuitType)))
}

func TestBrokenBuildingKeepsToonsInLobby(t *testing.T) {
	bad := building("ttc", 2)
	bad.Dept = "x"
	tl := newTestLobby(t, bad)
	b, _ := tl.lobby.Building("ttc")
	a := tl.addToon("a")

	assert.Equal(t, nil, tl.lobby.EnterBuilding(a, "ttc"))
	tl.s.Advance(tl.battle.BoardingTime)
	assert.T(t, b.Zone() == nil)
	assert.Equal(t, 0, len(b.Boarding()))
	assert.T(t, a.Space == &tl.lobby.Space)
	assert.Equal(t, 0, len(tl.mgr.Entities(zone.ZoneType)))

	tl.battle.BoardingTime = 0
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(a, "ttc"), "departing at once reports the failure")

	_, err := b.CreateZone(nil)
	assert.NotEqual(t, nil, err)
}

func TestGroupBoarding(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1), building("dg", 1))
	b, _ := tl.lobby.Building("ttc")
	a := tl.addToon("a")
	c := tl.addToon("c")

	assert.T(t, tl.mgr.OnCallFromClient("a", a.ID, "EnterBuilding", []interface{}{"ttc"}))
	tl.s.Advance(time.Second)
	assert.T(t, tl.mgr.OnCallFromClient("c", c.ID, "EnterBuilding", []interface{}{"TTC"}))
	assert.T(t, b.Zone() == nil, "the elevator waits for more toons")
	assert.Equal(t, []common.EntityID{a.ID, c.ID}, b.Boarding())
	boarding := tl.rec.Fields(common.ClientID("a"), FieldBoarding)
	assert.Equal(t, []interface{}{int(a.ID), int(c.ID)}, boarding[len(boarding)-1])
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(a, "ttc"), "already boarding")
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(a, "dg"), "boarding another building")

	tl.s.Advance(tl.battle.BoardingTime - time.Second)
	z := b.Zone()
	assert.NotEqual(t, (*zone.Zone)(nil), z)
	assert.T(t, a.Space == &z.Space)
	assert.T(t, c.Space == &z.Space)
	assert.Equal(t, []common.EntityID{a.ID, c.ID}, z.Watchers())
	assert.Equal(t, 0, len(b.Boarding()))
	assert.Equal(t, 1, len(tl.mgr.Entities(zone.ZoneType)))
}

func TestFullGroupDepartsAtOnce(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1))
	b, _ := tl.lobby.Building("ttc")
	var toons []*avatar.Toon
	for _, name := range []string{"a", "b", "c", "d"} {
		toon := tl.addToon(name)
		toons = append(toons, toon)
		assert.Equal(t, nil, tl.lobby.EnterBuilding(toon, "ttc"))
	}
	z := b.Zone()
	assert.NotEqual(t, (*zone.Zone)(nil), z)
	assert.Equal(t, MaxGroupSize, len(z.Watchers()))

	late := tl.addToon("late")
	assert.NotEqual(t, nil, tl.lobby.EnterBuilding(late, "ttc"), "one encounter at a time")
	tl.s.Advance(tl.battle.BoardingTime)
	assert.T(t, late.Space == &tl.lobby.Space)
}

func TestLeavingTheLobbyUnboards(t *testing.T) {
	tl := newTestLobby(t, building("ttc", 1))
	b, _ := tl.lobby.Building("ttc")
	a := tl.addToon("a")
	c := tl.addToon("c")

	assert.Equal(t, nil, tl.lobby.EnterBuilding(a, "ttc"))
	assert.Equal(t, nil, tl.lobby.EnterBuilding(c, "ttc"))
	c.Destroy()
	assert.Equal(t, []common.EntityID{a.ID}, b.Boarding())

	a.Destroy()
	assert.Equal(t, 0, len(b.Boarding()))
	tl.s.Advance(tl.battle.BoardingTime)
	assert.T(t, b.Zone() == nil, "nobody left to depart")
	assert.Equal(t, 0, len(tl.mgr.Entities(zone.ZoneType)))
}
