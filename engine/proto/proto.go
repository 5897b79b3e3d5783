package proto

import (
	"fmt"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
)

// MsgType is the type of message types
type MsgType uint16

// Messages types sent by clients to the gate
const (
	// MT_INVALID is the invalid message type
	MT_INVALID MsgType = iota
	// MT_CALL_ENTITY_METHOD_FROM_CLIENT requests a _Client method on an entity
	MT_CALL_ENTITY_METHOD_FROM_CLIENT
	// MT_HEARTBEAT_FROM_CLIENT is sent by client to notify the gate server that the client is alive
	MT_HEARTBEAT_FROM_CLIENT
)

// Message types sent by the game to clients
const (
	// MT_CREATE_ENTITY_ON_CLIENT tells the client an entity became visible
	MT_CREATE_ENTITY_ON_CLIENT MsgType = 1000 + iota
	// MT_DESTROY_ENTITY_ON_CLIENT tells the client an entity is gone
	MT_DESTROY_ENTITY_ON_CLIENT
	// MT_FIELD_UPDATE_ON_CLIENT carries one replicated field update
	MT_FIELD_UPDATE_ON_CLIENT
)

// ClientRequest is the intent reported by a client. The game validates it before anything changes.
type ClientRequest struct {
	Type     MsgType         `msgpack:"t" json:"t"`
	EntityID common.EntityID `msgpack:"e" json:"e"`
	Method   string          `msgpack:"m,omitempty" json:"m,omitempty"`
	Args     []interface{}   `msgpack:"a,omitempty" json:"a,omitempty"`
}

// FieldUpdate is a server-owned state change pushed to one client
type FieldUpdate struct {
	Type       MsgType         `msgpack:"t" json:"t"`
	EntityID   common.EntityID `msgpack:"e" json:"e"`
	EntityType string          `msgpack:"y,omitempty" json:"y,omitempty"`
	Field      string          `msgpack:"f,omitempty" json:"f,omitempty"`
	Args       []interface{}   `msgpack:"a,omitempty" json:"a,omitempty"`
}

func (fu *FieldUpdate) String() string {
	switch fu.Type {
	case MT_CREATE_ENTITY_ON_CLIENT:
		return fmt.Sprintf("create %s<%s>", fu.EntityType, fu.EntityID)
	case MT_DESTROY_ENTITY_ON_CLIENT:
		return fmt.Sprintf("destroy %s<%s>", fu.EntityType, fu.EntityID)
	default:
		return fmt.Sprintf("%s.%s%v", fu.EntityID, fu.Field, fu.Args)
	}
}

// NetworkTime converts t to the millisecond timestamp carried by state broadcasts. It wraps every ~49 days.
func NetworkTime(t time.Time) uint32 {
	return uint32(t.UnixNano() / int64(time.Millisecond))
}

// ElapsedSince returns how long ago the network timestamp ts was, as seen at now
func ElapsedSince(ts uint32, now time.Time) time.Duration {
	return time.Duration(NetworkTime(now)-ts) * time.Millisecond
}
