package entity

import (
	"testing"
	"time"

	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/proto"
	"github.com/cogoffice/battlezone/engine/sched"
)

type testAvatar struct {
	Entity
	fired     []int
	aim       float32
	destroyed int
}

func (a *testAvatar) Fire_Client(count int, aim float32) {
	a.fired = append(a.fired, count)
	a.aim = aim
}

func (a *testAvatar) Shout_AllClients(msg string) {
	a.SendUpdate("shout", msg)
}

func (a *testAvatar) GrantReward(amount int) {
	panic("must not be callable from clients")
}

func (a *testAvatar) OnDestroy() {
	a.destroyed++
}

type testSpace struct {
	Space
	entered []common.EntityID
	moved   int
}

func (s *testSpace) OnEntityEnterSpace(e *Entity) {
	s.entered = append(s.entered, e.ID)
}

func (s *testSpace) OnEntityMoved(e *Entity) {
	s.moved++
}

func init() {
	RegisterEntity("testAvatar", &testAvatar{})
	RegisterSpace("testSpace", &testSpace{})
}

func newTestManager() (*Manager, *sched.ManualScheduler, *UpdateRecorder) {
	s := sched.NewManual(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := NewUpdateRecorder()
	return NewManager(s, rec), s, rec
}

func TestRegisterEntityTwice(t *testing.T) {
	d1 := RegisterEntity("testAvatar", &testAvatar{})
	d2 := RegisterEntity("testAvatar", &testAvatar{})
	if d1 != d2 {
		t.Fatalf("re-registering should return the same desc")
	}
	if m := d1.methods["Fire"]; m == nil || !m.allows(true) || m.allows(false) {
		t.Fatalf("Fire_Client should be registered as Fire for the own client")
	}
	if m := d1.methods["Shout"]; m == nil || !m.allows(false) {
		t.Fatalf("Shout_AllClients should be open to other clients")
	}
	if _, ok := d1.methods["GrantReward"]; ok {
		t.Fatalf("GrantReward should be server only")
	}
}

func TestCreateAndFindEntity(t *testing.T) {
	mgr, _, _ := newTestManager()
	a := mgr.CreateEntity("testAvatar", nil, Vector3{1, 2, 3})
	b := mgr.CreateEntity("testAvatar", nil, Vector3{})
	if a.ID == 0 || b.ID <= a.ID {
		t.Fatalf("ids should increase: %s %s", a.ID, b.ID)
	}
	if e, ok := mgr.FindEntity(a.ID); !ok || e != a {
		t.Fatalf("FindEntity failed")
	}
	if a.I.(*testAvatar).Position != (Vector3{1, 2, 3}) {
		t.Fatalf("position not set")
	}
	list := mgr.Entities("testAvatar")
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Fatalf("Entities should be ordered by id: %v", list)
	}

	a.Destroy()
	a.Destroy()
	if _, ok := mgr.FindEntity(a.ID); ok {
		t.Fatalf("destroyed entity still found")
	}
	if a.I.(*testAvatar).destroyed != 1 {
		t.Fatalf("OnDestroy should run once")
	}
}

func TestTimersCancelledOnDestroy(t *testing.T) {
	mgr, s, _ := newTestManager()
	e := mgr.CreateEntity("testAvatar", nil, Vector3{})
	ticks := 0
	e.AddTimer(100*time.Millisecond, func() { ticks++ })
	oneShot := 0
	e.AddCallback(time.Second, func() { oneShot++ })

	s.Advance(350 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("ticks = %d", ticks)
	}
	e.Destroy()
	s.Advance(5 * time.Second)
	if ticks != 3 || oneShot != 0 {
		t.Fatalf("callbacks fired after destroy: ticks=%d oneShot=%d", ticks, oneShot)
	}
	if e.TimerCount() != 0 || s.Pending() != 0 {
		t.Fatalf("timers left behind: %d %d", e.TimerCount(), s.Pending())
	}
	if tid := e.AddCallback(time.Second, func() {}); tid.IsValid() {
		t.Fatalf("destroyed entity should not accept timers")
	}
}

func TestNamedCallback(t *testing.T) {
	mgr, s, _ := newTestManager()
	e := mgr.CreateEntity("testAvatar", nil, Vector3{})
	var fired []string
	e.AddNamedCallback("task", time.Second, func() { fired = append(fired, "first") })
	e.AddNamedCallback("task", 2*time.Second, func() { fired = append(fired, "second") })
	if !e.HasNamedCallback("task") {
		t.Fatalf("task should be pending")
	}
	s.Advance(3 * time.Second)
	if len(fired) != 1 || fired[0] != "second" {
		t.Fatalf("named callback should replace: %v", fired)
	}
	if e.HasNamedCallback("task") {
		t.Fatalf("fired task should be forgotten")
	}

	e.AddNamedCallback("task", time.Second, func() { fired = append(fired, "third") })
	e.CancelNamedCallback("task")
	s.Advance(3 * time.Second)
	if len(fired) != 1 {
		t.Fatalf("cancelled named callback fired: %v", fired)
	}
}

func TestSendUpdateReachesSpaceObservers(t *testing.T) {
	mgr, _, rec := newTestManager()
	space := mgr.CreateSpace("testSpace")
	a := space.CreateEntity("testAvatar", Vector3{})
	b := space.CreateEntity("testAvatar", Vector3{})
	outsider := mgr.CreateEntity("testAvatar", nil, Vector3{})
	a.SetClient(MakeGameClient("ca", rec))
	b.SetClient(MakeGameClient("cb", rec))
	outsider.SetClient(MakeGameClient("cx", rec))
	rec.Reset()

	a.SendUpdate("setAttackState", 2)
	space.SendUpdate("setState", "battle", uint32(10))

	for _, cid := range []common.ClientID{"ca", "cb"} {
		if got := rec.Fields(cid, "setAttackState"); len(got) != 1 || got[0][0] != 2 {
			t.Fatalf("%s: setAttackState = %v", cid, got)
		}
		if got := rec.Fields(cid, "setState"); len(got) != 1 || got[0][0] != "battle" {
			t.Fatalf("%s: setState = %v", cid, got)
		}
	}
	if len(rec.Updates("cx")) != 0 {
		t.Fatalf("outsider should not observe: %v", rec.Updates("cx"))
	}
	ts := space.I.(*testSpace)
	if len(ts.entered) != 2 || ts.entered[0] != a.ID {
		t.Fatalf("OnEntityEnterSpace not called: %v", ts.entered)
	}
	a.SetPosition(Vector3{1, 1, 0})
	if ts.moved != 1 {
		t.Fatalf("OnEntityMoved not called")
	}
}

func TestClientSeesSpaceOnConnect(t *testing.T) {
	mgr, _, rec := newTestManager()
	space := mgr.CreateSpace("testSpace")
	other := space.CreateEntity("testAvatar", Vector3{})
	a := space.CreateEntity("testAvatar", Vector3{})
	a.SetClient(MakeGameClient("ca", rec))

	updates := rec.Updates("ca")
	if len(updates) != 3 {
		t.Fatalf("unexpected updates: %v", updates)
	}
	if updates[0].Type != proto.MT_CREATE_ENTITY_ON_CLIENT || updates[0].EntityID != a.ID || updates[0].Args[0] != true {
		t.Fatalf("player should be created first: %v", updates[0])
	}
	if updates[1].EntityID != space.ID || updates[2].EntityID != other.ID {
		t.Fatalf("space then members: %v", updates)
	}

	other.Destroy()
	last := rec.Updates("ca")[3]
	if last.Type != proto.MT_DESTROY_ENTITY_ON_CLIENT || last.EntityID != other.ID {
		t.Fatalf("destroy not replicated: %v", last)
	}
}

func TestCallFromClient(t *testing.T) {
	mgr, _, rec := newTestManager()
	space := mgr.CreateSpace("testSpace")
	a := space.CreateEntity("testAvatar", Vector3{})
	b := space.CreateEntity("testAvatar", Vector3{})
	a.SetClient(MakeGameClient("ca", rec))
	b.SetClient(MakeGameClient("cb", rec))
	ta := a.I.(*testAvatar)

	if !mgr.OnCallFromClient("ca", a.ID, "Fire", []interface{}{int64(3), float64(0.5)}) {
		t.Fatalf("Fire should be callable by own client")
	}
	if len(ta.fired) != 1 || ta.fired[0] != 3 || ta.aim != 0.5 {
		t.Fatalf("args not converted: %v %v", ta.fired, ta.aim)
	}
	if !mgr.OnCallFromClient("ca", a.ID, "Fire", nil) || ta.fired[1] != 0 {
		t.Fatalf("missing args should be zero values")
	}
	if mgr.OnCallFromClient("cb", a.ID, "Fire", []interface{}{1}) {
		t.Fatalf("Fire must not be callable by other clients")
	}
	if mgr.OnCallFromClient("ca", a.ID, "GrantReward", []interface{}{100}) {
		t.Fatalf("server methods must not be callable by clients")
	}
	if mgr.OnCallFromClient("ca", a.ID, "Fire", []interface{}{1, 2, 3}) {
		t.Fatalf("too many args should be rejected")
	}
	if !mgr.OnCallFromClient("cb", a.ID, "Shout", []interface{}{"hi"}) {
		t.Fatalf("Shout should be callable by all clients")
	}
	if mgr.OnCallFromClient("ca", 999, "Fire", nil) {
		t.Fatalf("unknown entity")
	}

	if owner, ok := mgr.GetClientOwner("cb"); !ok || owner != b {
		t.Fatalf("client owner not tracked")
	}
	mgr.OnClientDisconnected("cb")
	if _, ok := mgr.GetClientOwner("cb"); ok || b.GetClient() != nil {
		t.Fatalf("client should be unbound")
	}
}
