package gate

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/netutil"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/gorilla/websocket"
	"github.com/xiaonanln/typeconv"
)

const waitTimeout = 5 * time.Second

type event struct {
	kind     string
	clientid common.ClientID
	req      *proto.ClientRequest
}

type fakeHandler struct {
	events chan event
}

func (h *fakeHandler) OnClientConnected(clientid common.ClientID) {
	h.events <- event{kind: "connected", clientid: clientid}
}

func (h *fakeHandler) OnClientDisconnected(clientid common.ClientID) {
	h.events <- event{kind: "disconnected", clientid: clientid}
}

func (h *fakeHandler) OnClientRequest(clientid common.ClientID, req *proto.ClientRequest) {
	h.events <- event{kind: "request", clientid: clientid, req: req}
}

func (h *fakeHandler) next(t *testing.T, kind string) event {
	select {
	case ev := <-h.events:
		if ev.kind != kind {
			t.Fatalf("expect %s, got %s", kind, ev.kind)
		}
		return ev
	case <-time.After(waitTimeout):
		t.Fatalf("no %s event", kind)
	}
	return event{}
}

type testGate struct {
	gs      *GateService
	handler *fakeHandler
	addr    string
	cancel  context.CancelFunc
	done    chan error
}

func startGate(t *testing.T, cfg config.GateConfig) *testGate {
	gs, err := New(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	tg := &testGate{
		gs:      gs,
		handler: &fakeHandler{events: make(chan event, 16)},
		addr:    ln.Addr().String(),
		cancel:  cancel,
		done:    make(chan error, 1),
	}
	go func() {
		tg.done <- gs.Serve(ctx, ln, tg.handler)
	}()
	return tg
}

func (tg *testGate) stop(t *testing.T) {
	tg.cancel()
	select {
	case err := <-tg.done:
		assert.Equal(t, nil, err)
	case <-time.After(waitTimeout):
		t.Fatal("gate did not stop")
	}
}

func (tg *testGate) dial(t *testing.T) (*websocket.Conn, common.ClientID) {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+tg.addr+WebSocketPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn, tg.handler.next(t, "connected").clientid
}

func send(t *testing.T, conn *websocket.Conn, packer netutil.MsgPacker, messageType int, req *proto.ClientRequest) {
	data, err := packer.PackMsg(req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(messageType, data); err != nil {
		t.Fatal(err)
	}
}

func TestRequestsAndUpdates(t *testing.T) {
	tg := startGate(t, config.GateConfig{Packer: "msgpack"})
	defer tg.stop(t)
	conn, clientid := tg.dial(t)
	defer conn.Close()
	assert.Equal(t, 1, tg.gs.ClientCount())

	send(t, conn, netutil.MessagePackMsgPacker{}, websocket.BinaryMessage, &proto.ClientRequest{
		Type:     proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT,
		EntityID: 7,
		Method:   "EnterBuilding",
		Args:     []interface{}{"ttc", 3},
	})
	ev := tg.handler.next(t, "request")
	assert.Equal(t, clientid, ev.clientid)
	assert.Equal(t, common.EntityID(7), ev.req.EntityID)
	assert.Equal(t, "EnterBuilding", ev.req.Method)
	assert.Equal(t, "ttc", ev.req.Args[0])
	assert.Equal(t, int64(3), typeconv.Int(ev.req.Args[1]))

	tg.gs.SendFieldUpdate(clientid, &proto.FieldUpdate{
		Type:     proto.MT_FIELD_UPDATE_ON_CLIENT,
		EntityID: 7,
		Field:    "setState",
		Args:     []interface{}{"battle"},
	})
	tg.gs.SendFieldUpdate("nobody", &proto.FieldUpdate{Type: proto.MT_FIELD_UPDATE_ON_CLIENT, EntityID: 1})

	_ = conn.SetReadDeadline(time.Now().Add(waitTimeout))
	messageType, data, err := conn.ReadMessage()
	assert.Equal(t, nil, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	var update proto.FieldUpdate
	assert.Equal(t, nil, netutil.MessagePackMsgPacker{}.UnpackMsg(data, &update))
	assert.Equal(t, common.EntityID(7), update.EntityID)
	assert.Equal(t, "setState", update.Field)
	assert.Equal(t, "battle", update.Args[0])

	conn.Close()
	assert.Equal(t, clientid, tg.handler.next(t, "disconnected").clientid)
	assert.Equal(t, 0, tg.gs.ClientCount())
}

func TestJSONPackerAndBadRequests(t *testing.T) {
	tg := startGate(t, config.GateConfig{Packer: "json"})
	defer tg.stop(t)
	conn, clientid := tg.dial(t)
	defer conn.Close()

	tg.gs.SendFieldUpdate(clientid, &proto.FieldUpdate{Type: proto.MT_CREATE_ENTITY_ON_CLIENT, EntityID: 3, EntityType: "Toon"})
	_ = conn.SetReadDeadline(time.Now().Add(waitTimeout))
	messageType, data, err := conn.ReadMessage()
	assert.Equal(t, nil, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	var update proto.FieldUpdate
	assert.Equal(t, nil, netutil.JSONMsgPacker{}.UnpackMsg(data, &update))
	assert.Equal(t, "Toon", update.EntityType)

	send(t, conn, netutil.JSONMsgPacker{}, websocket.TextMessage, &proto.ClientRequest{Type: proto.MT_HEARTBEAT_FROM_CLIENT})
	send(t, conn, netutil.JSONMsgPacker{}, websocket.TextMessage, &proto.ClientRequest{Type: proto.MT_FIELD_UPDATE_ON_CLIENT})
	assert.Equal(t, clientid, tg.handler.next(t, "disconnected").clientid)

	_, _, err = conn.ReadMessage()
	assert.NotEqual(t, nil, err)
}

func TestHeartbeatTimeout(t *testing.T) {
	tg := startGate(t, config.GateConfig{Packer: "msgpack", HeartbeatTimeout: 300 * time.Millisecond})
	defer tg.stop(t)
	conn, clientid := tg.dial(t)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		time.Sleep(100 * time.Millisecond)
		send(t, conn, netutil.MessagePackMsgPacker{}, websocket.BinaryMessage, &proto.ClientRequest{Type: proto.MT_HEARTBEAT_FROM_CLIENT})
	}
	assert.Equal(t, 1, tg.gs.ClientCount())
	assert.Equal(t, clientid, tg.handler.next(t, "disconnected").clientid)
}

func TestStopDisconnectsClients(t *testing.T) {
	tg := startGate(t, config.GateConfig{Packer: "msgpack"})
	conn, clientid := tg.dial(t)
	defer conn.Close()

	tg.stop(t)
	tg.gs.WaitTerminated()
	assert.Equal(t, clientid, tg.handler.next(t, "disconnected").clientid)
	_ = conn.SetReadDeadline(time.Now().Add(waitTimeout))
	_, _, err := conn.ReadMessage()
	assert.NotEqual(t, nil, err)
}

func TestUnknownPacker(t *testing.T) {
	_, err := New(&config.GateConfig{Packer: "gob"})
	assert.NotEqual(t, nil, err)
}
