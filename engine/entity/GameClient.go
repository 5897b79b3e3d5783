package entity

import (
	"fmt"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/proto"
)

// UpdateSink delivers field updates to connected clients, preserving call order per client
//
//go:generate mockgen -destination=mock_entity/mock_update_sink.go -package=mock_entity github.com/cogoffice/battlezone/engine/entity UpdateSink
type UpdateSink interface {
	SendFieldUpdate(clientid common.ClientID, update *proto.FieldUpdate)
}

// GameClient represents the game client of entity
//
// Each entity can have at most one GameClient, and GameClient can be given to other entities
type GameClient struct {
	clientid common.ClientID
	sink     UpdateSink
}

// MakeGameClient creates a GameClient object using Client ID and the sink reaching that client
func MakeGameClient(clientid common.ClientID, sink UpdateSink) *GameClient {
	return &GameClient{
		clientid: clientid,
		sink:     sink,
	}
}

// ClientID returns the client ID
func (client *GameClient) ClientID() common.ClientID {
	return client.clientid
}

func (client *GameClient) String() string {
	if client == nil {
		return "GameClient<nil>"
	}
	return fmt.Sprintf("GameClient<%s>", client.clientid)
}

func (client *GameClient) send(update *proto.FieldUpdate) {
	if client == nil {
		return
	}
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s <<< %s", client, update)
	}
	client.sink.SendFieldUpdate(client.clientid, update)
}

func (client *GameClient) sendCreateEntity(entity *Entity, isPlayer bool) {
	pos := entity.Position
	client.send(&proto.FieldUpdate{
		Type:       proto.MT_CREATE_ENTITY_ON_CLIENT,
		EntityID:   entity.ID,
		EntityType: entity.TypeName,
		Args:       []interface{}{isPlayer, float32(pos.X), float32(pos.Y), float32(pos.Z)},
	})
	for _, field := range entity.stateFields {
		client.sendFieldUpdate(entity.ID, field, entity.state[field])
	}
}

func (client *GameClient) sendDestroyEntity(entity *Entity) {
	client.send(&proto.FieldUpdate{
		Type:       proto.MT_DESTROY_ENTITY_ON_CLIENT,
		EntityID:   entity.ID,
		EntityType: entity.TypeName,
	})
}

func (client *GameClient) sendFieldUpdate(entityID common.EntityID, field string, args []interface{}) {
	client.send(&proto.FieldUpdate{
		Type:     proto.MT_FIELD_UPDATE_ON_CLIENT,
		EntityID: entityID,
		Field:    field,
		Args:     args,
	})
}
