package game

import (
	"context"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/proto"
)

func testConfig() *config.BattleZoneConfig {
	battle := config.DefaultBattleConfig()
	battle.BoardingTime = 0 // toons enter alone as soon as they ask
	return &config.BattleZoneConfig{
		Game:   config.GameConfig{TickInterval: 5 * time.Millisecond},
		Battle: battle,
		Buildings: map[string]*config.BuildingConfig{
			"ttc": {Hood: "ttc", Dept: "s", Floors: 1, LevelRange: [2]int{1, 3}, BossLevelRange: [2]int{3, 4},
				GuardsPerSecMin: 1, GuardsPerSecMax: 2},
		},
		KVDB: config.KVDBConfig{Type: "mem"},
	}
}

func newTestGame(t *testing.T) (*GameService, *entity.UpdateRecorder) {
	rec := entity.NewUpdateRecorder()
	gs, err := New(testConfig(), rec)
	if err != nil {
		t.Fatal(err)
	}
	return gs, rec
}

func TestClientLifecycle(t *testing.T) {
	gs, rec := newTestGame(t)
	defer gs.terminate()

	gs.OnClientConnected("c1")
	gs.tick()
	owner, ok := gs.Manager().GetClientOwner("c1")
	assert.T(t, ok)
	assert.T(t, gs.Lobby().Contains(owner))
	updates := rec.Updates("c1")
	assert.Equal(t, proto.MT_CREATE_ENTITY_ON_CLIENT, updates[0].Type)
	assert.Equal(t, owner.ID, updates[0].EntityID)
	assert.Equal(t, true, updates[0].Args[0])

	gs.OnClientConnected("c1")
	gs.tick()
	assert.Equal(t, 1, len(gs.Manager().Entities(avatar.ToonType)))

	gs.OnClientRequest("c1", &proto.ClientRequest{
		Type:     proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT,
		EntityID: owner.ID,
		Method:   "EnterBuilding",
		Args:     []interface{}{"TTC"},
	})
	gs.tick()
	_, inZone := owner.Space.I.(*zone.Zone)
	assert.T(t, inZone)
	b, _ := gs.Lobby().Building("ttc")
	assert.NotEqual(t, (*zone.Zone)(nil), b.Zone())

	gs.OnClientDisconnected("c1")
	gs.tick()
	_, ok = gs.Manager().GetClientOwner("c1")
	assert.T(t, !ok)
	assert.Equal(t, 0, len(gs.Manager().Entities(avatar.ToonType)))
	assert.T(t, b.Zone() == nil)
}

func TestRequestsForOtherEntitiesAreRejected(t *testing.T) {
	gs, _ := newTestGame(t)
	defer gs.terminate()

	gs.OnClientConnected("c1")
	gs.OnClientConnected("c2")
	gs.tick()
	c1, _ := gs.Manager().GetClientOwner("c1")

	gs.OnClientRequest("c2", &proto.ClientRequest{
		Type:     proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT,
		EntityID: c1.ID,
		Method:   "EnterBuilding",
		Args:     []interface{}{"ttc"},
	})
	gs.OnClientRequest("c2", &proto.ClientRequest{Type: proto.MT_HEARTBEAT_FROM_CLIENT})
	gs.OnClientRequest("c2", &proto.ClientRequest{
		Type:     proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT,
		EntityID: common.EntityID(9999),
		Method:   "LoadedMap",
	})
	gs.tick()
	assert.T(t, gs.Lobby().Contains(c1))
}

func TestRunStopsWithContext(t *testing.T) {
	gs, _ := newTestGame(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- gs.Run(ctx)
	}()

	ran := make(chan struct{})
	gs.Post(func() {
		close(ran)
	})
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("posted callback never ran")
	}
	cancel()
	select {
	case err := <-done:
		assert.Equal(t, nil, err)
	case <-time.After(5 * time.Second):
		t.Fatal("game did not stop")
	}
	assert.Equal(t, rsTerminated, int(gs.runState.Load()))
	assert.NotEqual(t, nil, gs.Run(context.Background()))
}

func TestNewRejectsBrokenConfig(t *testing.T) {
	cfg := testConfig()
	cfg.KVDB.Type = "paper"
	_, err := New(cfg, entity.NewUpdateRecorder())
	assert.NotEqual(t, nil, err)

	cfg = testConfig()
	cfg.Buildings["ttc"].Hood = "TTC"
	cfg.Buildings["Ttc"] = &config.BuildingConfig{Hood: "Ttc", Dept: "s", Floors: 1}
	_, err = New(cfg, entity.NewUpdateRecorder())
	assert.NotEqual(t, nil, err)

	cfg = testConfig()
	cfg.Battle.ReclaimEveryMinutes = 61
	_, err = New(cfg, entity.NewUpdateRecorder())
	assert.NotEqual(t, nil, err)
}
