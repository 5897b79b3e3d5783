package entity

import (
	"bytes"
	"sort"

	"github.com/cogoffice/battlezone/engine/common"
)

// EntityMap is the data structure for maintaining entity IDs to entities
type EntityMap map[common.EntityID]*Entity

// Add adds a new entity to EntityMap
func (em EntityMap) Add(entity *Entity) {
	em[entity.ID] = entity
}

// Del deletes an entity from EntityMap
func (em EntityMap) Del(id common.EntityID) {
	delete(em, id)
}

// Get returns the Entity of specified entity ID in EntityMap
func (em EntityMap) Get(id common.EntityID) *Entity {
	return em[id]
}

// Sorted returns the entities ordered by ID
func (em EntityMap) Sorted() []*Entity {
	list := make([]*Entity, 0, len(em))
	for _, e := range em {
		list = append(list, e)
	}
	sortEntities(list)
	return list
}

// EntitySet is the data structure for a set of entities
type EntitySet map[*Entity]struct{}

// Add adds an entity to the EntitySet
func (es EntitySet) Add(entity *Entity) {
	es[entity] = struct{}{}
}

// Del deletes an entity from the EntitySet
func (es EntitySet) Del(entity *Entity) {
	delete(es, entity)
}

// Contains returns if the entity is in the EntitySet
func (es EntitySet) Contains(entity *Entity) bool {
	_, ok := es[entity]
	return ok
}

// Sorted returns the entities ordered by ID
func (es EntitySet) Sorted() []*Entity {
	list := make([]*Entity, 0, len(es))
	for e := range es {
		list = append(list, e)
	}
	sortEntities(list)
	return list
}

func (es EntitySet) String() string {
	b := bytes.Buffer{}
	b.WriteString("{")
	for i, entity := range es.Sorted() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(entity.String())
	}
	b.WriteString("}")
	return b.String()
}

func sortEntities(list []*Entity) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
}
