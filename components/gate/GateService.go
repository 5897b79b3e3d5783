// Package gate accepts websocket clients and relays their traffic to the game.
//
// Client requests are decoded with the configured packer and handed to the Handler. Field updates flow the other
// way: the game calls SendFieldUpdate, the gate packs the update and queues it on the client's connection.
package gate

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/config"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/netutil"
	"github.com/cogoffice/battlezone/engine/opmon"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// WebSocketPath is the path clients connect to
const WebSocketPath = "/ws"

const shutdownTimeout = 5 * time.Second

// Handler receives the events of the clients. It is called from the connection routines.
type Handler interface {
	OnClientConnected(clientid common.ClientID)
	OnClientDisconnected(clientid common.ClientID)
	OnClientRequest(clientid common.ClientID, req *proto.ClientRequest)
}

// GateService implements the gate service logic
type GateService struct {
	cfg         *config.GateConfig
	packer      netutil.MsgPacker
	messageType int
	upgrader    websocket.Upgrader
	handler     Handler

	clientProxies     map[common.ClientID]*ClientProxy
	clientProxiesLock sync.RWMutex

	terminating xnsyncutil.AtomicBool
	terminated  *xnsyncutil.OneTimeCond
}

// New creates the gate of the config
func New(cfg *config.GateConfig) (*GateService, error) {
	packer, err := netutil.GetMsgPacker(cfg.Packer)
	if err != nil {
		return nil, err
	}
	gs := &GateService{
		cfg:           cfg,
		packer:        packer,
		clientProxies: map[common.ClientID]*ClientProxy{},
		terminated:    xnsyncutil.NewOneTimeCond(),
		messageType:   websocket.BinaryMessage,
	}
	if !packer.Binary() {
		gs.messageType = websocket.TextMessage
	}
	gs.upgrader = websocket.Upgrader{
		EnableCompression: cfg.CompressConnection,
		CheckOrigin:       func(r *http.Request) bool { return true },
	}
	return gs, nil
}

// ListenAndServe listens on the configured address and serves clients until ctx is done
func (gs *GateService) ListenAndServe(ctx context.Context, handler Handler) error {
	ln, err := net.Listen("tcp", gs.cfg.ListenAddr)
	if err != nil {
		return errors.Wrap(err, "gate listen")
	}
	return gs.Serve(ctx, ln, handler)
}

// Serve serves clients on ln until ctx is done. Every client is disconnected before Serve returns.
func (gs *GateService) Serve(ctx context.Context, ln net.Listener, handler Handler) error {
	gs.handler = handler
	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, gs)
	server := &http.Server{Handler: mux}

	gwlog.Infof("gate: serving websocket clients on ws://%s%s (%s packer)", ln.Addr(), WebSocketPath, gs.cfg.Packer)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		gs.terminate()
		return errors.Wrap(err, "gate serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	gs.terminate()
	if err != nil {
		return errors.Wrap(err, "gate shutdown")
	}
	return nil
}

func (gs *GateService) terminate() {
	gs.terminating.Store(true)
	gs.clientProxiesLock.RLock()
	proxies := make([]*ClientProxy, 0, len(gs.clientProxies))
	for _, cp := range gs.clientProxies {
		proxies = append(proxies, cp)
	}
	gs.clientProxiesLock.RUnlock()

	for _, cp := range proxies {
		cp.Close()
	}
	gwlog.Infof("gate: terminated, %d clients disconnected", len(proxies))
	gs.terminated.Signal()
}

// WaitTerminated blocks until the gate stopped serving
func (gs *GateService) WaitTerminated() {
	gs.terminated.Wait()
}

// ServeHTTP upgrades the request to a websocket and serves the client until it disconnects
func (gs *GateService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if gs.terminating.Load() {
		http.Error(w, "gate is terminating", http.StatusServiceUnavailable)
		return
	}
	conn, err := gs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gwlog.Warnf("gate: upgrade %s failed: %v", r.RemoteAddr, err)
		return
	}

	cp := newClientProxy(gs, conn)
	gs.onNewClientProxy(cp)
	cp.serve()
	gs.onClientProxyClose(cp)
}

func (gs *GateService) onNewClientProxy(cp *ClientProxy) {
	gs.clientProxiesLock.Lock()
	gs.clientProxies[cp.clientid] = cp
	gs.clientProxiesLock.Unlock()
	gwlog.Infof("gate: %s connected", cp)
	gs.handler.OnClientConnected(cp.clientid)
}

func (gs *GateService) onClientProxyClose(cp *ClientProxy) {
	gs.clientProxiesLock.Lock()
	delete(gs.clientProxies, cp.clientid)
	gs.clientProxiesLock.Unlock()
	gwlog.Infof("gate: %s disconnected", cp)
	gs.handler.OnClientDisconnected(cp.clientid)
}

// ClientCount returns the number of connected clients
func (gs *GateService) ClientCount() int {
	gs.clientProxiesLock.RLock()
	defer gs.clientProxiesLock.RUnlock()
	return len(gs.clientProxies)
}

// SendFieldUpdate implements entity.UpdateSink. Updates of clients that already left are dropped.
func (gs *GateService) SendFieldUpdate(clientid common.ClientID, update *proto.FieldUpdate) {
	gs.clientProxiesLock.RLock()
	cp := gs.clientProxies[clientid]
	gs.clientProxiesLock.RUnlock()
	if cp == nil {
		if consts.DEBUG_CLIENTS {
			gwlog.Debugf("gate: drop %s to %s", update, clientid)
		}
		return
	}

	op := opmon.StartOperation("gate.pack")
	data, err := gs.packer.PackMsg(update, nil)
	op.Finish(time.Millisecond)
	if err != nil {
		gwlog.Errorf("gate: pack %s failed: %v", update, err)
		return
	}
	cp.send(data)
}
