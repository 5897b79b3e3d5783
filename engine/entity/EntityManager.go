package entity

import (
	"reflect"
	"sync"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/gwutils"
	"github.com/cogoffice/battlezone/engine/sched"
)

var (
	registeredEntityTypesLock sync.Mutex
	registeredEntityTypes     = map[string]*EntityTypeDesc{}
)

// EntityTypeDesc is the entity type description for registering entity types
type EntityTypeDesc struct {
	isSpace    bool
	entityType reflect.Type
	methods    clientMethodMap
}

// RegisterEntity registers custom entity type and collects the methods its clients may call
//
// Registering the same Go type under the same name again returns the existing description.
func RegisterEntity(typeName string, entity IEntity) *EntityTypeDesc {
	return registerEntityType(typeName, entity, false)
}

// RegisterSpace registers a custom space type. The type must embed Space.
func RegisterSpace(typeName string, space ISpace) *EntityTypeDesc {
	return registerEntityType(typeName, space, true)
}

func registerEntityType(typeName string, entity IEntity, isSpace bool) *EntityTypeDesc {
	registeredEntityTypesLock.Lock()
	defer registeredEntityTypesLock.Unlock()

	entityVal := reflect.ValueOf(entity)
	entityType := entityVal.Type()

	if entityType.Kind() == reflect.Ptr {
		entityType = entityType.Elem()
	}

	if desc, ok := registeredEntityTypes[typeName]; ok {
		if desc.entityType != entityType {
			gwlog.Fatalf("RegisterEntity: Entity type %s already registered as %s", typeName, desc.entityType.Name())
		}
		return desc
	}

	methods := clientMethodMap{}
	entityTypeDesc := &EntityTypeDesc{
		isSpace:    isSpace,
		entityType: entityType,
		methods:    methods,
	}
	registeredEntityTypes[typeName] = entityTypeDesc

	entityPtrType := reflect.PtrTo(entityType)
	numClientMethods := 0
	for i := 0; i < entityPtrType.NumMethod(); i++ {
		if methods.visit(entityPtrType.Method(i)) {
			numClientMethods++
		}
	}

	gwlog.Infof(">>> RegisterEntity %s => %s, %d client methods <<<", typeName, entityType.Name(), numClientMethods)
	return entityTypeDesc
}

// Manager owns the entities of one game process: it assigns IDs, keeps the registry and routes client requests.
// The scheduler and the update sink are injected so that tests can drive time and observe replication.
type Manager struct {
	sched          sched.Scheduler
	sink           UpdateSink
	lastEntityID   common.EntityID
	entities       EntityMap
	entitiesByType map[string]EntityMap
	clientOwners   map[common.ClientID]*Entity
}

// NewManager creates an entity manager
func NewManager(s sched.Scheduler, sink UpdateSink) *Manager {
	return &Manager{
		sched:          s,
		sink:           sink,
		entities:       EntityMap{},
		entitiesByType: map[string]EntityMap{},
		clientOwners:   map[common.ClientID]*Entity{},
	}
}

// Scheduler returns the scheduler driving the entities
func (em *Manager) Scheduler() sched.Scheduler {
	return em.sched
}

// Sink returns the update sink clients are reached through
func (em *Manager) Sink() UpdateSink {
	return em.sink
}

func (em *Manager) put(entity *Entity) {
	em.entities.Add(entity)
	etype := entity.TypeName
	if entities, ok := em.entitiesByType[etype]; ok {
		entities.Add(entity)
	} else {
		em.entitiesByType[etype] = EntityMap{entity.ID: entity}
	}
}

func (em *Manager) del(e *Entity) {
	eid := e.ID
	em.entities.Del(eid)
	if entities, ok := em.entitiesByType[e.TypeName]; ok {
		entities.Del(eid)
	}
}

// FindEntity returns the live entity of the ID
func (em *Manager) FindEntity(id common.EntityID) (*Entity, bool) {
	e := em.entities.Get(id)
	if e == nil || e.destroyed {
		return nil, false
	}
	return e, true
}

// Entities returns all live entities of the type ordered by ID
func (em *Manager) Entities(typeName string) []*Entity {
	return em.entitiesByType[typeName].Sorted()
}

// Count returns the number of live entities
func (em *Manager) Count() int {
	return len(em.entities)
}

// CreateEntity creates a new entity of the registered type and puts it in space (nil for no space)
func (em *Manager) CreateEntity(typeName string, space *Space, pos Vector3) *Entity {
	entityTypeDesc, ok := registeredEntityTypes[typeName]
	if !ok {
		gwlog.Panicf("unknown entity type: %s", typeName)
	}

	em.lastEntityID += 1
	entityID := em.lastEntityID

	entityInstance := reflect.New(entityTypeDesc.entityType)
	entity := reflect.Indirect(entityInstance).FieldByName("Entity").Addr().Interface().(*Entity)
	if entityTypeDesc.isSpace {
		entity.asSpace = reflect.Indirect(entityInstance).FieldByName("Space").Addr().Interface().(*Space)
	}
	entity.Position = pos
	entity.init(em, typeName, entityID, entityInstance)

	em.put(entity)

	gwlog.Debugf("Entity %s created.", entity)
	gwutils.RunPanicless(entity.I.OnCreated)

	if space != nil {
		space.enter(entity, pos)
	}
	return entity
}

// CreateSpace creates a new space of the registered space type
func (em *Manager) CreateSpace(typeName string) *Space {
	e := em.CreateEntity(typeName, nil, Vector3{})
	if e.asSpace == nil {
		gwlog.Panicf("%s is not a space type", typeName)
	}
	return e.asSpace
}

func (em *Manager) onEntityGetClient(e *Entity, clientid common.ClientID) {
	em.clientOwners[clientid] = e
}

func (em *Manager) onEntityLoseClient(clientid common.ClientID) {
	delete(em.clientOwners, clientid)
}

// GetClientOwner returns the entity the client is bound to
func (em *Manager) GetClientOwner(clientid common.ClientID) (*Entity, bool) {
	e, ok := em.clientOwners[clientid]
	return e, ok
}

// OnCallFromClient routes a client request to the target entity
func (em *Manager) OnCallFromClient(clientid common.ClientID, entityID common.EntityID, method string, args []interface{}) bool {
	e, ok := em.FindEntity(entityID)
	if !ok {
		gwlog.Warnf("call %s from %s: entity %s not found", method, clientid, entityID)
		return false
	}
	return e.CallFromClient(clientid, method, args)
}

// OnClientDisconnected unbinds the client from its owner entity
func (em *Manager) OnClientDisconnected(clientid common.ClientID) {
	e, ok := em.clientOwners[clientid]
	if !ok {
		return
	}
	e.SetClient(nil)
}
