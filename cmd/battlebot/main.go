// Command battlebot connects scripted toons to a battlezone server. Each bot enters a building, loads every floor
// and shoots the nearest activated suit, logging what its mirror of the battle goes through.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/avatar"
	"github.com/cogoffice/battlezone/battle/mirror"
	"github.com/cogoffice/battlezone/battle/zone"
	"github.com/cogoffice/battlezone/engine/binutil"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/netutil"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	fireInterval      = 500 * time.Millisecond
	heartbeatInterval = 5 * time.Second
)

var args struct {
	server   string
	packer   string
	hood     string
	bots     int
	duration time.Duration
	logLevel string
}

func parseArgs() {
	flag.StringVar(&args.server, "server", "ws://127.0.0.1:15011/ws", "websocket url of the gate")
	flag.StringVar(&args.packer, "packer", "msgpack", "packer of the gate: msgpack or json")
	flag.StringVar(&args.hood, "hood", "ttc", "hood of the building to enter")
	flag.IntVar(&args.bots, "n", 1, "number of bots")
	flag.DurationVar(&args.duration, "duration", time.Minute, "how long the bots play, 0 for ever")
	flag.StringVar(&args.logLevel, "log", "info", "log level")
	flag.Parse()
}

func main() {
	parseArgs()
	binutil.SetupGWLog("battlebot", args.logLevel, "", true)
	defer gwlog.Sync()

	packer, err := netutil.GetMsgPacker(args.packer)
	if err != nil {
		gwlog.Fatalf("battlebot: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if args.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, args.duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < args.bots; i++ {
		b := newBot(i+1, packer)
		g.Go(func() error {
			return b.run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		gwlog.Errorf("battlebot: %+v", err)
		gwlog.Sync()
		os.Exit(1)
	}
}

type bot struct {
	name        string
	packer      netutil.MsgPacker
	messageType int
	conn        *websocket.Conn
	world       *mirror.World

	entered bool
	loaded  int
}

func newBot(id int, packer netutil.MsgPacker) *bot {
	b := &bot{
		name:        fmt.Sprintf("bot%d", id),
		packer:      packer,
		messageType: websocket.BinaryMessage,
		loaded:      -1,
	}
	if !packer.Binary() {
		b.messageType = websocket.TextMessage
	}
	b.world = mirror.NewWorld(nil, b)
	return b
}

func (b *bot) String() string {
	return b.name
}

// OnZoneState implements mirror.Listener
func (b *bot) OnZoneState(z *mirror.Zone, prev string) {
	gwlog.Infof("%s: zone %s -> %s (floor %d/%d %s, %s ago)", b, prev, z.State, z.Floor+1, z.NumFloors, z.FloorName, z.StateElapsed())
	if z.State == zone.StateBldgComplete {
		b.call("ReadyForNextFloor")
	}
}

// OnAttackAction implements mirror.Listener
func (b *bot) OnAttackAction(a *mirror.Avatar, kind attack.Kind, action attack.Action) {
	if a == b.world.Player() {
		gwlog.Debugf("%s: attack %d is now %d", b, kind, action)
	}
}

func (b *bot) run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, args.server, nil)
	if err != nil {
		return errors.Wrapf(err, "%s dial %s", b, args.server)
	}
	b.conn = conn
	defer conn.Close()

	updates := make(chan *proto.FieldUpdate, 256)
	readErr := make(chan error, 1)
	go func() {
		readErr <- b.readLoop(updates)
	}()

	fire := time.NewTicker(fireInterval)
	defer fire.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			gwlog.Infof("%s: leaving", b)
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "%s lost the server", b)
		case update := <-updates:
			if err := b.world.Apply(update); err != nil {
				gwlog.Warnf("%s: %v", b, err)
				continue
			}
			b.think()
		case <-fire.C:
			b.fire()
		case <-heartbeat.C:
			b.send(&proto.ClientRequest{Type: proto.MT_HEARTBEAT_FROM_CLIENT})
		}
	}
}

func (b *bot) readLoop(updates chan<- *proto.FieldUpdate) error {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return err
		}
		update := &proto.FieldUpdate{}
		if err := b.packer.UnpackMsg(data, update); err != nil {
			return errors.Wrap(err, "unpack update")
		}
		updates <- update
	}
}

// think reacts to the state the last update left the mirror in
func (b *bot) think() {
	player := b.world.Player()
	if player == nil {
		return
	}
	z := b.world.Zone()
	if z == nil {
		if !b.entered {
			b.entered = true
			b.call("SetName", b.name)
			b.call("EnterBuilding", args.hood)
			gwlog.Infof("%s: entering the building of %s", b, args.hood)
		}
		return
	}
	if z.State == zone.StateFloorIntermission && z.Floor != b.loaded {
		b.loaded = z.Floor
		b.call("LoadedMap")
	}
}

func (b *bot) fire() {
	player := b.world.Player()
	z := b.world.Zone()
	if player == nil || z == nil || z.State != zone.StateBattle {
		return
	}
	var target *mirror.Avatar
	var best entity.Coord
	for _, a := range b.world.Avatars() {
		if a.Type != avatar.SuitType || !a.Activated || a.Health <= 0 {
			continue
		}
		if d := player.Position.DistanceTo(a.Position); target == nil || d < best {
			target, best = a, d
		}
	}
	if target == nil {
		return
	}
	if pistol, ok := player.Attack(attack.KindHL2Pistol); ok && pistol.Clip() == 0 {
		b.call("ReloadAttack")
		return
	}
	dir := target.Position.Sub(player.Position).Normalized()
	b.call("FireAttack", float32(dir.X), float32(dir.Y), float32(dir.Z))
}

func (b *bot) call(method string, methodArgs ...interface{}) {
	player := b.world.Player()
	if player == nil {
		return
	}
	b.send(&proto.ClientRequest{
		Type:     proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT,
		EntityID: player.ID,
		Method:   method,
		Args:     methodArgs,
	})
}

func (b *bot) send(req *proto.ClientRequest) {
	data, err := b.packer.PackMsg(req, nil)
	if err != nil {
		gwlog.Errorf("%s: pack %s failed: %v", b, req.Method, err)
		return
	}
	if err := b.conn.WriteMessage(b.messageType, data); err != nil {
		gwlog.Warnf("%s: send %s failed: %v", b, req.Method, err)
	}
}
