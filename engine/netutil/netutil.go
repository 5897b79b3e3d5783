// Package netutil holds the wire formats of client messages and the helpers the websocket gate and bots share.
package netutil

import (
	"io"
	"net"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// IsConnectionError tells whether err means the peer is gone, so the error needs no logging
//
// Timeouts do not count: a read deadline that fires is a silent client, which the gate reports.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF || err == websocket.ErrCloseSent || errors.Is(err, net.ErrClosed) {
		return true
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
		return true
	}
	var neterr net.Error
	if errors.As(err, &neterr) {
		return !neterr.Timeout()
	}
	return false
}
