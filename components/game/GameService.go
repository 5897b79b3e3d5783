// Package game runs the battle zones of one process.
//
// Every entity lives on the game routine. The gate and the kvdb never touch entities directly: they post their
// events to the game, which handles them between two scheduler ticks.
package game

import (
	"context"
	"math/rand"
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/building"
	"github.com/cogoffice/battlezone/battle/quest"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/components/game/lbc"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/crontab"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/kvdb"
	"github.com/cogoffice/battlezone/engine/level"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/cogoffice/battlezone/engine/post"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/cogoffice/battlezone/engine/sched"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminating
	rsTerminated
)

// GameService owns the entities of the process
type GameService struct {
	cfg      *config.BattleZoneConfig
	sched    *sched.TimerScheduler
	queue    *post.Queue
	manager  *entity.Manager
	lobby    *building.Lobby
	db       *kvdb.KVDB
	cron     *crontab.Crontab
	runState xnsyncutil.AtomicInt
}

// New creates the game and opens the lobby. Field updates of every entity go to sink.
func New(cfg *config.BattleZoneConfig, sink entity.UpdateSink) (*GameService, error) {
	open, err := kvdb.Opener(&cfg.KVDB)
	if err != nil {
		return nil, err
	}
	levels, err := level.NewLoader(cfg.Battle.LevelDir)
	if err != nil {
		return nil, errors.Wrap(err, "open levels")
	}

	avatar.Register()
	zone.Register()
	building.Register()
	if cfg.Battle.AttackThinkInterval > 0 {
		attack.ThinkInterval = cfg.Battle.AttackThinkInterval
	}

	gs := &GameService{
		cfg:   cfg,
		sched: sched.NewTimerScheduler(),
		queue: post.NewQueue(),
	}
	gs.db = kvdb.New(open, gs.queue)
	gs.manager = entity.NewManager(gs.sched, sink)
	gs.lobby = gs.manager.CreateSpace(building.LobbyType).I.(*building.Lobby)
	err = gs.lobby.Setup(building.Deps{
		Battle: &cfg.Battle,
		Levels: levels,
		Quests: quest.NewManager(gs.db),
		Rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}, cfg.Buildings)
	if err != nil {
		gs.db.Close()
		return nil, err
	}

	gs.cron = crontab.New(gs.sched)
	if every := cfg.Battle.ReclaimEveryMinutes; every > 0 {
		if _, err := gs.cron.Register(-every, -1, -1, -1, -1, func() { gs.lobby.ReclaimBuildings() }); err != nil {
			gs.db.Close()
			return nil, err
		}
	}
	return gs, nil
}

// Lobby returns the space toons join on connection
func (gs *GameService) Lobby() *building.Lobby {
	return gs.lobby
}

// Manager returns the entity manager of the game
func (gs *GameService) Manager() *entity.Manager {
	return gs.manager
}

// Post implements post.Poster: f runs on the game routine
func (gs *GameService) Post(f post.PostCallback) {
	gs.queue.Post(f)
}

// Run ticks the game until ctx is done, then closes the kvdb
func (gs *GameService) Run(ctx context.Context) error {
	if gs.runState.Load() != rsNotRunning {
		return errors.Errorf("game is already running")
	}
	gs.runState.Store(rsRunning)
	gwlog.Infof("game: %d buildings open, ticking every %s", len(gs.cfg.Buildings), gs.cfg.Game.TickInterval)

	if gs.cfg.Game.LoadLogInterval > 0 {
		gamelbc.Initialize(ctx, gs.cfg.Game.LoadLogInterval, func(load gamelbc.Load) {
			gs.Post(func() {
				gwlog.Infof("game: %s, %d entities, %d posted", load, gs.manager.Count(), gs.queue.Len())
			})
		})
	}

	ticker := time.NewTicker(gs.cfg.Game.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			gs.terminate()
			return nil
		case <-ticker.C:
			gs.tick()
		}
	}
}

func (gs *GameService) tick() {
	op := opmon.StartOperation("game.tick")
	gs.sched.Tick()
	gs.queue.Tick()
	op.Finish(consts.GAME_SERVICE_TICK_INTERVAL * 10)
}

func (gs *GameService) terminate() {
	gs.runState.Store(rsTerminating)
	gwlog.Infof("game: terminating with %d entities", gs.manager.Count())
	gs.cron.Stop()
	gs.db.Close()
	gs.db.WaitTerminated()
	gs.queue.Tick() // callbacks of the last kvdb operations
	opmon.Dump()
	gs.runState.Store(rsTerminated)
}

// OnClientConnected creates a toon in the lobby for the new client
func (gs *GameService) OnClientConnected(clientid common.ClientID) {
	gs.Post(func() {
		if _, ok := gs.manager.GetClientOwner(clientid); ok {
			gwlog.Warnf("game: %s connected twice", clientid)
			return
		}
		e := gs.lobby.CreateEntity(avatar.ToonType, entity.Vector3{})
		e.SetClient(entity.MakeGameClient(clientid, gs.manager.Sink()))
		if consts.DEBUG_CLIENTS {
			gwlog.Debugf("game: %s owns %s", clientid, e)
		}
	})
}

// OnClientDisconnected unbinds the client. Its toon destroys itself.
func (gs *GameService) OnClientDisconnected(clientid common.ClientID) {
	gs.Post(func() {
		gs.manager.OnClientDisconnected(clientid)
	})
}

// OnClientRequest routes a request of the client to its target entity
func (gs *GameService) OnClientRequest(clientid common.ClientID, req *proto.ClientRequest) {
	gs.Post(func() {
		switch req.Type {
		case proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT:
			gs.manager.OnCallFromClient(clientid, req.EntityID, req.Method, req.Args)
		default:
			gwlog.Warnf("game: unexpected request %d from %s", req.Type, clientid)
		}
	})
}
