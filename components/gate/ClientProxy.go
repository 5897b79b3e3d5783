package gate

import (
	"fmt"
	"sync"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/netutil"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/gorilla/websocket"
)

// ClientProxy is a game client connection managed by gate
type ClientProxy struct {
	gate     *GateService
	conn     *websocket.Conn
	clientid common.ClientID

	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newClientProxy(gs *GateService, conn *websocket.Conn) *ClientProxy {
	return &ClientProxy{
		gate:     gs,
		conn:     conn,
		clientid: common.GenClientID(), // each client has its unique clientid
		out:      make(chan []byte, consts.CLIENT_PROXY_SEND_QUEUE_SIZE),
		closed:   make(chan struct{}),
	}
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%s@%s>", cp.clientid, cp.conn.RemoteAddr())
}

// Close disconnects the client. The connection routines quit on their own.
func (cp *ClientProxy) Close() {
	cp.closeOnce.Do(func() {
		close(cp.closed)
		_ = cp.conn.Close()
	})
}

// send queues one packed message. A client that can not keep up is disconnected.
func (cp *ClientProxy) send(data []byte) {
	select {
	case cp.out <- data:
	case <-cp.closed:
	default:
		gwlog.Warnf("%s: send queue is full, disconnecting", cp)
		cp.Close()
	}
}

// serve runs the read loop on the calling routine and the write loop on its own
func (cp *ClientProxy) serve() {
	defer cp.Close()
	go cp.writeLoop()

	cp.conn.SetReadLimit(consts.CLIENT_PROXY_MAX_MESSAGE_SIZE)
	timeout := cp.gate.cfg.HeartbeatTimeout
	for {
		if timeout > 0 {
			_ = cp.conn.SetReadDeadline(time.Now().Add(timeout))
		}
		_, data, err := cp.conn.ReadMessage()
		if err != nil {
			if !netutil.IsConnectionError(err) {
				gwlog.Warnf("%s: read failed: %v", cp, err)
			}
			return
		}

		var req proto.ClientRequest
		if err := cp.gate.packer.UnpackMsg(data, &req); err != nil {
			gwlog.Warnf("%s: bad request: %v", cp, err)
			return
		}
		if consts.DEBUG_CLIENTS {
			gwlog.Debugf("%s >>> %d %s.%s%v", cp, req.Type, req.EntityID, req.Method, req.Args)
		}

		switch req.Type {
		case proto.MT_HEARTBEAT_FROM_CLIENT:
			// the read deadline moved already
		case proto.MT_CALL_ENTITY_METHOD_FROM_CLIENT:
			cp.gate.handler.OnClientRequest(cp.clientid, &req)
		default:
			gwlog.Warnf("%s: unknown request type %d", cp, req.Type)
			return
		}
	}
}

func (cp *ClientProxy) writeLoop() {
	for {
		select {
		case <-cp.closed:
			return
		case data := <-cp.out:
			_ = cp.conn.SetWriteDeadline(time.Now().Add(consts.CLIENT_PROXY_WRITE_TIMEOUT))
			if err := cp.conn.WriteMessage(cp.gate.messageType, data); err != nil {
				if !netutil.IsConnectionError(err) {
					gwlog.Warnf("%s: write failed: %v", cp, err)
				}
				cp.Close()
				return
			}
		}
	}
}
