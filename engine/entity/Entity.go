package entity

import (
	"fmt"
	"reflect"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/gwlog"
	"github.com/cogoffice/battlezone/engine/sched"
)

// Entity is the basic execution unit of the game process. Entities represent player avatars, guards and
// battle zones. Every entity belongs to exactly one Manager and is only touched from the game routine.
type Entity struct {
	ID       common.EntityID
	TypeName string
	I        IEntity
	V        reflect.Value
	Space    *Space
	Position Vector3

	mgr         *Manager
	destroyed   bool
	typeDesc    *EntityTypeDesc
	timers      map[EntityTimerID]sched.Handle
	namedTimers map[string]EntityTimerID
	lastTimerId EntityTimerID
	client      *GameClient
	asSpace     *Space // set if the entity itself is a space

	stateFields []string
	state       map[string][]interface{}
}

// IEntity declares functions that is defined in Entity
type IEntity interface {
	// Entity Lifetime
	OnInit()    // Called when initializing entity struct, override to initialize entity custom fields
	OnCreated() // Called when entity is just created
	OnDestroy() // Called when entity is destroying (just before destroy)
	// Space Operations
	OnEnterSpace()             // Called when entity enters space
	OnLeaveSpace(space *Space) // Called when entity leaves space
	// Client Notifications
	OnClientConnected()    // Called when Client is connected to entity (become player)
	OnClientDisconnected() // Called when Client disconnected
}

func (e *Entity) String() string {
	if e == nil {
		return "Entity<nil>"
	}
	return fmt.Sprintf("%s<%s>", e.TypeName, e.ID)
}

func (e *Entity) init(mgr *Manager, typeName string, entityid common.EntityID, entityInstance reflect.Value) {
	e.ID = entityid
	e.V = entityInstance
	e.I = entityInstance.Interface().(IEntity)
	e.TypeName = typeName
	e.mgr = mgr
	e.typeDesc = registeredEntityTypes[typeName]
	e.timers = map[EntityTimerID]sched.Handle{}
	e.namedTimers = map[string]EntityTimerID{}

	e.I.OnInit()
}

// Manager returns the manager owning the entity
func (e *Entity) Manager() *Manager {
	return e.mgr
}

// Now returns the current time of the entity's scheduler
func (e *Entity) Now() time.Time {
	return e.mgr.sched.Now()
}

// Destroy destroys the entity
//
// OnDestroy runs first while the entity is still registered, then every pending timer is cancelled before the
// entity leaves its space and the manager. Destroying twice is a no-op.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	gwlog.Debugf("%s.Destroy ...", e)
	e.destroyed = true
	e.I.OnDestroy()
	e.clearTimers()

	if e.Space != nil {
		e.Space.leave(e)
	}
	if e.client != nil {
		e.client.sendDestroyEntity(e)
		e.mgr.onEntityLoseClient(e.client.clientid)
		e.client = nil
	}
	e.mgr.del(e)
}

// IsDestroyed returns if the entity is destroyed
func (e *Entity) IsDestroyed() bool {
	return e.destroyed
}

// Timer & Callback Management

// EntityTimerID is the type of entity timer ID
type EntityTimerID int

// IsValid returns if the EntityTimerID is still valid (not fired and not cancelled)
func (tid EntityTimerID) IsValid() bool {
	return tid > 0
}

// AddCallback adds a one-time callback for the entity
//
// The callback will be cancelled if entity is destroyed
func (e *Entity) AddCallback(d time.Duration, cb func()) EntityTimerID {
	if e.destroyed {
		gwlog.Warnf("%s.AddCallback: entity is destroyed", e)
		return 0
	}
	tid := e.genTimerId()
	e.timers[tid] = e.mgr.sched.AddCallback(d, func() {
		if _, ok := e.timers[tid]; !ok {
			return
		}
		delete(e.timers, tid)
		cb()
	})
	return tid
}

// AddTimer adds a repeat timer for the entity
//
// The callback will be cancelled if entity is destroyed
func (e *Entity) AddTimer(d time.Duration, cb func()) EntityTimerID {
	if e.destroyed {
		gwlog.Warnf("%s.AddTimer: entity is destroyed", e)
		return 0
	}
	if d < consts.MIN_REPEAT_TIMER_INTERVAL {
		d = consts.MIN_REPEAT_TIMER_INTERVAL
	}
	tid := e.genTimerId()
	e.timers[tid] = e.mgr.sched.AddTimer(d, func() {
		if _, ok := e.timers[tid]; !ok {
			return
		}
		cb()
	})
	return tid
}

// CancelTimer cancels the Callback / Timer
func (e *Entity) CancelTimer(tid EntityTimerID) {
	h, ok := e.timers[tid]
	if !ok {
		return // timer already fired or cancelled
	}
	delete(e.timers, tid)
	h.Cancel()
}

// HasTimer returns if the timer is still pending
func (e *Entity) HasTimer(tid EntityTimerID) bool {
	_, ok := e.timers[tid]
	return ok
}

// AddNamedCallback schedules a one-time callback under a task name, replacing any pending task of the same name
func (e *Entity) AddNamedCallback(name string, d time.Duration, cb func()) EntityTimerID {
	e.CancelNamedCallback(name)
	var tid EntityTimerID
	tid = e.AddCallback(d, func() {
		if e.namedTimers[name] == tid {
			delete(e.namedTimers, name)
		}
		cb()
	})
	if tid.IsValid() {
		e.namedTimers[name] = tid
	}
	return tid
}

// CancelNamedCallback cancels the pending task of the name, if any
func (e *Entity) CancelNamedCallback(name string) {
	if tid, ok := e.namedTimers[name]; ok {
		delete(e.namedTimers, name)
		e.CancelTimer(tid)
	}
}

// HasNamedCallback returns if a task of the name is pending
func (e *Entity) HasNamedCallback(name string) bool {
	_, ok := e.namedTimers[name]
	return ok
}

// TimerCount returns the number of pending timers
func (e *Entity) TimerCount() int {
	return len(e.timers)
}

func (e *Entity) genTimerId() EntityTimerID {
	e.lastTimerId += 1
	return e.lastTimerId
}

func (e *Entity) clearTimers() {
	for tid, h := range e.timers {
		delete(e.timers, tid)
		h.Cancel()
	}
	e.namedTimers = map[string]EntityTimerID{}
}

// Client related utilities

// GetClient returns the Client of entity
func (e *Entity) GetClient() *GameClient {
	return e.client
}

// SetClient sets the Client of entity
func (e *Entity) SetClient(client *GameClient) {
	oldClient := e.client
	if oldClient == client {
		return
	}

	e.client = client

	if oldClient != nil {
		e.mgr.onEntityLoseClient(oldClient.clientid)
		if e.Space != nil {
			for _, member := range e.Space.entities.Sorted() {
				if member != e {
					oldClient.sendDestroyEntity(member)
				}
			}
			oldClient.sendDestroyEntity(&e.Space.Entity)
		}
		oldClient.sendDestroyEntity(e)
	}

	if client != nil {
		e.mgr.onEntityGetClient(e, client.clientid)
		client.sendCreateEntity(e, true)
		if e.Space != nil {
			client.sendCreateEntity(&e.Space.Entity, false)
			for _, member := range e.Space.entities.Sorted() {
				if member != e {
					client.sendCreateEntity(member, false)
				}
			}
		}
	}

	if oldClient == nil && client != nil {
		e.I.OnClientConnected()
	} else if oldClient != nil && client == nil {
		e.I.OnClientDisconnected()
	}
}

// CallClient sends a field update to the entity's own client only
func (e *Entity) CallClient(field string, args ...interface{}) {
	e.client.sendFieldUpdate(e.ID, field, args)
}

// SendUpdate replicates a field change to every observing client
//
// Observers are the entity's own client and the clients of every entity in the same space; a space's observers
// are the clients of its members. Each observer gets the update exactly once, in call order.
func (e *Entity) SendUpdate(field string, args ...interface{}) {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s.SendUpdate %s %v", e, field, args)
	}
	e.ForAllClients(func(client *GameClient) {
		client.sendFieldUpdate(e.ID, field, args)
	})
}

// Replicate is SendUpdate for fields holding state rather than events: the last args of every replicated field are
// sent again, in first-replicated order, to each client the entity is created on later
func (e *Entity) Replicate(field string, args ...interface{}) {
	if e.state == nil {
		e.state = map[string][]interface{}{}
	}
	if _, ok := e.state[field]; !ok {
		e.stateFields = append(e.stateFields, field)
	}
	e.state[field] = args
	e.SendUpdate(field, args...)
}

// ForAllClients visits all observing clients, ordered by the ID of the entity owning the client
func (e *Entity) ForAllClients(f func(client *GameClient)) {
	visited := map[common.ClientID]struct{}{}
	visit := func(client *GameClient) {
		if client == nil {
			return
		}
		if _, ok := visited[client.clientid]; ok {
			return
		}
		visited[client.clientid] = struct{}{}
		f(client)
	}

	visit(e.client)
	var members []*Entity
	if e.asSpace != nil {
		members = e.asSpace.entities.Sorted()
	} else if e.Space != nil {
		members = e.Space.entities.Sorted()
	}
	for _, member := range members {
		visit(member.client)
	}
}

// OnClientConnected is called when Client is connected
//
// Can override this function in custom entity type
func (e *Entity) OnClientConnected() {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s.OnClientConnected: %s", e, e.client)
	}
}

// OnClientDisconnected is called when Client is disconnected
//
// Can override this function in custom entity type
func (e *Entity) OnClientDisconnected() {
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s.OnClientDisconnected", e)
	}
}

// OnInit is called when entity is initializing
//
// Can override this function in custom entity type
func (e *Entity) OnInit() {
}

// OnCreated is called when entity is created
//
// Can override this function in custom entity type
func (e *Entity) OnCreated() {
}

// OnDestroy is called when entity is destroying
//
// Can override this function in custom entity type
func (e *Entity) OnDestroy() {
}

// OnEnterSpace is called when entity enters space
//
// Can override this function in custom entity type
func (e *Entity) OnEnterSpace() {
	if consts.DEBUG_SPACES {
		gwlog.Debugf("%s.OnEnterSpace >>> %s", e, e.Space)
	}
}

// OnLeaveSpace is called when entity leaves space
//
// Can override this function in custom entity type
func (e *Entity) OnLeaveSpace(space *Space) {
	if consts.DEBUG_SPACES {
		gwlog.Debugf("%s.OnLeaveSpace <<< %s", e, space)
	}
}

// Position related

// GetPosition returns the entity position
func (e *Entity) GetPosition() Vector3 {
	return e.Position
}

// SetPosition moves the entity and notifies its space
func (e *Entity) SetPosition(pos Vector3) {
	e.Position = pos
	if e.Space != nil {
		e.Space.onEntityMoved(e)
	}
}

// DistanceTo calculates the distance between two entities
func (e *Entity) DistanceTo(other *Entity) Coord {
	return e.Position.DistanceTo(other.Position)
}

// RPC

// CallFromClient dispatches a request from a client to a _Client or _AllClients method of the entity
//
// Arguments are converted to the method's parameter types; missing trailing arguments are zero values.
// Requests for unknown methods or methods the client may not call are logged and dropped.
func (e *Entity) CallFromClient(clientid common.ClientID, methodName string, args []interface{}) (ok bool) {
	defer func() {
		if err := recover(); err != nil {
			gwlog.TraceError("%s.%s paniced: %s", e, methodName, err)
			ok = false
		}
	}()

	method := e.typeDesc.methods[methodName]
	if method == nil {
		gwlog.Errorf("%s.CallFromClient: %s is not a client method, args=%v", e, methodName, args)
		return false
	}
	ownClient := e.client != nil && clientid == e.client.clientid
	if !method.allows(ownClient) {
		gwlog.Errorf("%s.CallFromClient: %s may not call %s (own client %s)", e, clientid, methodName, e.client)
		return false
	}

	in, err := method.callArgs(e.V, args)
	if err != nil {
		gwlog.Errorf("%s.CallFromClient: %v", e, err)
		return false
	}
	method.fn.Call(in)
	return true
}
