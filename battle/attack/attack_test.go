package attack

import (
	"math/rand"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/sched"
)

type testOwner struct {
	entity.Entity
}

func init() {
	entity.RegisterEntity("testOwner", &testOwner{})
}

const testClient = common.ClientID("attack-test-client")

func newTestAttack(t *testing.T, kind Kind) (*Attack, *sched.ManualScheduler, *entity.UpdateRecorder) {
	s := sched.NewManual(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := entity.NewUpdateRecorder()
	mgr := entity.NewManager(s, rec)
	owner := mgr.CreateEntity("testOwner", nil, entity.Vector3{})
	owner.SetClient(entity.MakeGameClient(testClient, rec))

	def, ok := GetDefinition(kind)
	if !ok {
		t.Fatalf("no definition for %d", kind)
	}
	return New(def, owner, ServerExecutor{Owner: owner}), s, rec
}

func lastAmmo(t *testing.T, rec *entity.UpdateRecorder) Ammo {
	fields := rec.Fields(testClient, FieldAttackAmmo)
	if len(fields) == 0 {
		t.Fatalf("no ammo update sent")
	}
	last := fields[len(fields)-1]
	v, err := AmmoFromArgs(last[1:])
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func states(rec *entity.UpdateRecorder) []Action {
	var res []Action
	for _, args := range rec.Fields(testClient, FieldAttackState) {
		res = append(res, Action(args[1].(int)))
	}
	return res
}

func TestEquipDrawsThenIdles(t *testing.T) {
	a, s, rec := newTestAttack(t, KindHL2Pistol)
	assert.Equal(t, ActionOff, a.Action())

	assert.T(t, a.Equip())
	assert.T(t, !a.Equip(), "equip twice")
	assert.Equal(t, ActionIdle, a.Action())
	next, ok := a.NextAction()
	assert.T(t, ok)
	assert.Equal(t, ActionDraw, next)

	s.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionDraw, a.Action())
	assert.T(t, !a.CanUse(), "cannot fire while drawing")

	s.Advance(950 * time.Millisecond)
	assert.Equal(t, ActionDraw, a.Action())
	s.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionIdle, a.Action())
	assert.Equal(t, []Action{ActionIdle, ActionDraw, ActionIdle}, states(rec))
}

func equipReady(t *testing.T, kind Kind) (*Attack, *sched.ManualScheduler, *entity.UpdateRecorder) {
	a, s, rec := newTestAttack(t, kind)
	a.Equip()
	s.Advance(1200 * time.Millisecond)
	if a.Action() != ActionIdle {
		t.Fatalf("attack should be idle after drawing, got %s", a.Action())
	}
	return a, s, rec
}

func TestFireEmptiesClipAndReloads(t *testing.T) {
	a, s, rec := equipReady(t, KindHL2Pistol)
	a.SetClip(1)

	assert.T(t, a.PrimaryFirePress())
	assert.Equal(t, ActionFire, a.Action())
	assert.Equal(t, 0, a.Clip())
	assert.Equal(t, 149, a.Ammo())
	assert.Equal(t, Ammo{Ammo: 149, MaxAmmo: 150, Secondary: 1, MaxSecondary: 1, Clip: 0, MaxClip: 18}, lastAmmo(t, rec))
	assert.T(t, !a.CanUse(), "empty clip")
	assert.T(t, !a.PrimaryFirePress())

	s.Advance(600 * time.Millisecond)
	assert.Equal(t, ActionReload, a.Action())

	s.Advance(1900 * time.Millisecond)
	assert.Equal(t, ActionIdle, a.Action())
	assert.Equal(t, 18, a.Clip())
	assert.Equal(t, 18, lastAmmo(t, rec).Clip)
}

func TestReloadLimitedByReserve(t *testing.T) {
	a, s, _ := equipReady(t, KindHL2Pistol)
	a.SetAmmo(5)
	a.SetClip(1)
	a.PrimaryFirePress()
	s.Advance(3 * time.Second)
	assert.Equal(t, 4, a.Ammo())
	assert.Equal(t, 4, a.Clip())
}

func TestRefireDelay(t *testing.T) {
	a, s, _ := equipReady(t, KindHL2Pistol)
	assert.T(t, a.PrimaryFirePress())
	s.Advance(50 * time.Millisecond)
	assert.T(t, !a.CanUse(), "refire too early")
	s.Advance(50 * time.Millisecond)
	assert.T(t, a.CanUse(), "refire after delay")
	assert.T(t, a.PrimaryFirePress())
	assert.Equal(t, 16, a.Clip())

	// the shotgun has to be idle to fire again
	g, gs, _ := equipReady(t, KindHL2Shotgun)
	assert.T(t, g.PrimaryFirePress())
	gs.Advance(500 * time.Millisecond)
	assert.T(t, !g.CanUse())
	gs.Advance(600 * time.Millisecond)
	assert.T(t, g.CanUse())
}

func TestCanUseNeedsClip(t *testing.T) {
	a, _, _ := equipReady(t, KindHL2Pistol)
	a.SetClip(0)
	assert.T(t, a.HasAmmo())
	assert.T(t, !a.CanUse(), "clip weapons need a non-empty clip")

	tie, _, _ := newTestAttack(t, KindClipOnTie)
	tie.Equip()
	assert.T(t, tie.CanUse())
	tie.SetAmmo(0)
	assert.T(t, !tie.CanUse(), "no ammo")
}

func TestReloadPress(t *testing.T) {
	a, s, _ := equipReady(t, KindHL2Pistol)
	assert.T(t, !a.ReloadPress(), "full clip")

	a.PrimaryFirePress()
	assert.T(t, !a.ReloadPress(), "not idle")
	s.Advance(600 * time.Millisecond)
	assert.Equal(t, ActionIdle, a.Action())

	assert.T(t, a.ReloadPress())
	s.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionReload, a.Action())
	s.Advance(1800 * time.Millisecond)
	assert.Equal(t, ActionIdle, a.Action())
	assert.Equal(t, 18, a.Clip())
	assert.Equal(t, 149, a.Ammo())

	tie, _, _ := newTestAttack(t, KindClipOnTie)
	tie.Equip()
	assert.T(t, !tie.ReloadPress(), "no reload for clip-less attacks")
}

func TestUnEquipCancelsThink(t *testing.T) {
	a, s, rec := newTestAttack(t, KindHL2Pistol)
	a.Equip()
	s.Advance(100 * time.Millisecond)
	assert.Equal(t, ActionDraw, a.Action())

	assert.T(t, a.UnEquip())
	assert.T(t, !a.UnEquip())
	assert.Equal(t, ActionOff, a.Action())
	assert.Equal(t, 0, s.Pending())

	sent := len(states(rec))
	s.Advance(10 * time.Second)
	assert.Equal(t, sent, len(states(rec)))
	assert.Equal(t, ActionOff, a.Action())
	assert.T(t, !a.PrimaryFirePress(), "unequipped attacks cannot fire")
}

func TestTakeAmmoReplicates(t *testing.T) {
	a, _, rec := newTestAttack(t, KindHL2Pistol)
	a.TakeAmmo(-10)
	assert.Equal(t, 140, lastAmmo(t, rec).Ammo)
	a.TakeAmmo(1000)
	assert.Equal(t, 150, a.Ammo())
	assert.Equal(t, 150, lastAmmo(t, rec).Ammo)
	a.SetMaxAmmo(100)
	assert.Equal(t, Ammo{Ammo: 100, MaxAmmo: 100, Secondary: 1, MaxSecondary: 1, Clip: 18, MaxClip: 18}, lastAmmo(t, rec))
}

func TestNegativeAmmo(t *testing.T) {
	a, _, rec := newTestAttack(t, KindHL2Pistol)
	a.TakeAmmo(-1000)
	assert.Equal(t, 0, a.Ammo())
	assert.Equal(t, 0, lastAmmo(t, rec).Ammo)
	a.SetClip(-3)
	assert.Equal(t, 0, a.Clip())

	StrictIntegrity = true
	defer func() {
		StrictIntegrity = false
		if recover() == nil {
			t.Fatalf("negative ammo should panic in strict mode")
		}
	}()
	a.SetAmmo(-1)
}

func TestCountersStayInRange(t *testing.T) {
	a, s, _ := equipReady(t, KindHL2Shotgun)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		switch rng.Intn(6) {
		case 0:
			a.PrimaryFirePress()
		case 1:
			a.ReloadPress()
		case 2:
			a.TakeAmmo(rng.Intn(21) - 10)
		case 3:
			a.SetClip(rng.Intn(10) - 2)
		case 4:
			a.SetSecondaryAmmo(rng.Intn(4) - 1)
		case 5:
			s.Advance(time.Duration(rng.Intn(500)) * time.Millisecond)
		}
		if a.Clip() < 0 || a.Clip() > a.MaxClip() || a.Ammo() < 0 || a.Ammo() > a.MaxAmmo() ||
			a.SecondaryAmmo() < 0 || a.SecondaryAmmo() > a.MaxSecondaryAmmo() {
			t.Fatalf("step %d: out of range: %s", i, a.AmmoValues())
		}
	}
}

func TestClientExecutorAppliesCues(t *testing.T) {
	def, _ := GetDefinition(KindHL2Pistol)
	var cues []Action
	var ammo Ammo
	a := New(def, nil, ClientExecutor{
		OnAction: func(kind Kind, action Action) { cues = append(cues, action) },
		OnAmmo:   func(kind Kind, v Ammo) { ammo = v },
	})
	assert.T(t, a.Equip())
	assert.Equal(t, ActionOff, a.Action())
	assert.Equal(t, 0, len(cues))

	a.ApplyState(ActionFire)
	a.ApplyState(ActionReload)
	assert.Equal(t, []Action{ActionFire, ActionReload}, cues)
	assert.Equal(t, ActionFire, a.LastAction())

	a.ApplyAmmo(Ammo{Ammo: 3, MaxAmmo: 150, Secondary: 1, MaxSecondary: 1, Clip: 2, MaxClip: 18})
	assert.Equal(t, 3, ammo.Ammo)
	assert.Equal(t, 2, a.Clip())

	a.Think() // clients never advance on their own
	assert.Equal(t, ActionReload, a.Action())
}

func TestAmmoFromArgs(t *testing.T) {
	v, err := AmmoFromArgs([]interface{}{int64(1), uint8(2), 3, float64(4), int32(5), uint16(6)})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, Ammo{1, 2, 3, 4, 5, 6}, v)
	if _, err := AmmoFromArgs([]interface{}{1, 2}); err == nil {
		t.Fatalf("short snapshot should fail")
	}
}
