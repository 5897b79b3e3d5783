package entity

import (
	"fmt"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/gwutils"
)

// Space is the entity type of spaces
//
// Spaces are also entities but with a roster of member entities. Every member observes every other member.
type Space struct {
	Entity

	entities EntitySet
	I        ISpace
}

func (space *Space) String() string {
	return fmt.Sprintf("Space<%s|%s>", space.TypeName, space.ID)
}

// OnInit initialize Space entity
func (space *Space) OnInit() {
	space.entities = EntitySet{}
	space.I = space.Entity.I.(ISpace)
	gwutils.RunPanicless(space.I.OnSpaceInit)
}

// OnSpaceInit is called when Space is initializing
//
// Custom space type can override to provide custom logic
func (space *Space) OnSpaceInit() {
}

// OnEntityEnterSpace is called when entity enters space
//
// Custom space type can override to provide custom logic
func (space *Space) OnEntityEnterSpace(entity *Entity) {
	if consts.DEBUG_SPACES {
		gwlog.Debugf("%s.OnEntityEnterSpace: %s", space, entity)
	}
}

// OnEntityLeaveSpace is called when entity leaves space
//
// Custom space type can override to provide custom logic
func (space *Space) OnEntityLeaveSpace(entity *Entity) {
	if consts.DEBUG_SPACES {
		gwlog.Debugf("%s.OnEntityLeaveSpace: %s", space, entity)
	}
}

// OnEntityMoved is called when entity moves in space
//
// Custom space type can override to provide custom logic
func (space *Space) OnEntityMoved(entity *Entity) {
}

// CreateEntity creates a new local entity in this space
func (space *Space) CreateEntity(typeName string, pos Vector3) *Entity {
	return space.mgr.CreateEntity(typeName, space, pos)
}

// Enter moves an existing entity into the space at pos, leaving its current space first
func (space *Space) Enter(entity *Entity, pos Vector3) {
	if entity.Space == space {
		entity.SetPosition(pos)
		return
	}
	if entity.Space != nil {
		entity.Space.leave(entity)
	}
	space.enter(entity, pos)
}

// Leave removes the entity from the space
func (space *Space) Leave(entity *Entity) {
	space.leave(entity)
}

// Contains returns if the entity is a member of the space
func (space *Space) Contains(entity *Entity) bool {
	return space.entities.Contains(entity)
}

// ContainsID returns if the entity of the ID is a member of the space
func (space *Space) ContainsID(id common.EntityID) bool {
	e, ok := space.mgr.FindEntity(id)
	return ok && space.entities.Contains(e)
}

// CountEntities returns the number of entities of specified type in space
func (space *Space) CountEntities(typeName string) int {
	count := 0
	for e := range space.entities {
		if e.TypeName == typeName {
			count += 1
		}
	}
	return count
}

// Members returns the members ordered by ID
func (space *Space) Members() []*Entity {
	return space.entities.Sorted()
}

func (space *Space) enter(entity *Entity, pos Vector3) {
	if consts.DEBUG_SPACES {
		gwlog.Debugf("%s.enter <<< %s, count=%d", space, entity, len(space.entities))
	}

	if entity.Space != nil {
		gwlog.Panicf("%s.enter(%s): current Space is not nil", space, entity)
	}
	if space.IsDestroyed() {
		gwlog.Panicf("%s.enter(%s): space is destroyed", space, entity)
	}

	entity.Space = space
	entity.Position = pos

	if client := entity.client; client != nil {
		client.sendCreateEntity(&space.Entity, false) // create Space entity before every other entities
		for _, member := range space.entities.Sorted() {
			client.sendCreateEntity(member, false)
		}
	}
	for _, member := range space.entities.Sorted() {
		member.client.sendCreateEntity(entity, false)
	}
	space.entities.Add(entity)

	gwutils.RunPanicless(func() {
		space.I.OnEntityEnterSpace(entity)
		entity.I.OnEnterSpace()
	})
}

func (space *Space) leave(entity *Entity) {
	if entity.Space != space {
		gwlog.Panicf("%s.leave(%s): entity is not in this Space", space, entity)
	}

	space.entities.Del(entity)
	entity.Space = nil

	for _, member := range space.entities.Sorted() {
		member.client.sendDestroyEntity(entity)
	}
	if client := entity.client; client != nil {
		for _, member := range space.entities.Sorted() {
			client.sendDestroyEntity(member)
		}
		client.sendDestroyEntity(&space.Entity)
	}

	gwutils.RunPanicless(func() {
		space.I.OnEntityLeaveSpace(entity)
		entity.I.OnLeaveSpace(space)
	})
}

func (space *Space) onEntityMoved(entity *Entity) {
	gwutils.RunPanicless(func() {
		space.I.OnEntityMoved(entity)
	})
}
