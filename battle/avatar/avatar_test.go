package avatar

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/rules"
	"github.com/cogoffice/battlezone/battle/spawner"
	"github.com/cogoffice/battlezone/battle/suit"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/physics"
	"github.com/cogoffice/battlezone/engine/sched"
)

const testArenaType = "TestArena"

func init() {
	Register()
	entity.RegisterSpace(testArenaType, &testArena{})
}

// testArena is a bare zone: no floors, only the combat plumbing and a log of what the avatars reported
type testArena struct {
	entity.Space

	world    *physics.World
	registry *rules.Registry
	resolver *attack.Resolver

	hpZero   []common.EntityID
	dead     []common.EntityID
	ready    []common.EntityID
	loaded   []common.EntityID
	sections []int
}

func (a *testArena) OnSpaceInit() {
	a.world = physics.NewWorld()
	a.registry = rules.NewRegistry(rules.Permissive{})
	a.resolver = &attack.Resolver{Caster: a.world, Roster: a, Rules: a.registry}
}

func (a *testArena) OnEntityEnterSpace(e *entity.Entity) {
	if _, ok := e.I.(attack.Combatant); ok {
		a.world.SetSphere(e.ID, e.GetPosition(), 1.5, physics.SurfaceFlesh, physics.MaskAvatar)
	}
}

func (a *testArena) OnEntityMoved(e *entity.Entity) {
	if a.world.HasSphere(e.ID) {
		a.world.MoveSphere(e.ID, e.GetPosition())
	}
}

func (a *testArena) OnEntityLeaveSpace(e *entity.Entity) {
	a.world.RemoveSphere(e.ID)
}

func (a *testArena) Resolver() *attack.Resolver { return a.resolver }
func (a *testArena) Registry() *rules.Registry { return a.registry }

func (a *testArena) Combatants() []attack.Combatant {
	var res []attack.Combatant
	for _, e := range a.Members() {
		if c, ok := e.I.(attack.Combatant); ok {
			res = append(res, c)
		}
	}
	return res
}

func (a *testArena) FindCombatant(id common.EntityID) (attack.Combatant, bool) {
	for _, c := range a.Combatants() {
		if c.CombatantID() == id {
			return c, true
		}
	}
	return nil, false
}

func (a *testArena) ReadyForNextFloor(t *Toon) { a.ready = append(a.ready, t.ID) }
func (a *testArena) LoadedMap(t *Toon) { a.loaded = append(a.loaded, t.ID) }
func (a *testArena) EnterSection(t *Toon, section int) { a.sections = append(a.sections, section) }
func (a *testArena) SuitHPAtZero(s *Suit) { a.hpZero = append(a.hpZero, s.ID) }
func (a *testArena) DeadSuit(s *Suit) { a.dead = append(a.dead, s.ID) }

type testEnv struct {
	s     *sched.ManualScheduler
	rec   *entity.UpdateRecorder
	mgr   *entity.Manager
	arena *testArena
}

func newTestEnv() *testEnv {
	s := sched.NewManual(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	rec := entity.NewUpdateRecorder()
	mgr := entity.NewManager(s, rec)
	return &testEnv{s: s, rec: rec, mgr: mgr, arena: mgr.CreateSpace(testArenaType).I.(*testArena)}
}

func (env *testEnv) toon(name string, pos entity.Vector3) *Toon {
	e := env.arena.CreateEntity(ToonType, pos)
	e.SetClient(entity.MakeGameClient(common.ClientID(name), env.rec))
	t := e.I.(*Toon)
	t.Name = name
	return t
}

func (env *testEnv) suit(pos entity.Vector3, level int, flags int) *Suit {
	s := env.arena.CreateEntity(SuitType, pos).I.(*Suit)
	s.Setup(&spawner.Guard{
		Plan:     suit.ByDept(suit.DeptSales)[0],
		Level:    level,
		Flags:    flags,
		Position: pos,
	}, 500*time.Millisecond, 2*time.Second)
	return s
}

func TestHealthIsClamped(t *testing.T) {
	env := newTestEnv()
	toon := env.toon("flippy", entity.Vector3{})
	assert.Equal(t, ToonMaxHealth, toon.Health())

	toon.SetHealth(ToonMaxHealth + 10)
	assert.Equal(t, ToonMaxHealth, toon.Health())
	toon.SetHealth(-3)
	assert.Equal(t, 0, toon.Health())
	assert.T(t, toon.IsDead())

	toon.SetHealth(12)
	toon.SetMaxHealth(10)
	assert.Equal(t, 10, toon.Health())
	toon.SetMaxHealth(0)
	assert.Equal(t, 1, toon.MaxHealth())

	updates := env.rec.Fields("flippy", FieldHealth)
	assert.Equal(t, []interface{}{1, 1}, updates[len(updates)-1])
}

func TestToonGoesSadAndRecovers(t *testing.T) {
	env := newTestEnv()
	toon := env.toon("flippy", entity.Vector3{})

	toon.TakeDamage(attack.DamageInfo{Attacker: 42, Kind: attack.KindClipOnTie, Damage: 4})
	assert.Equal(t, ToonMaxHealth-4, toon.Health())
	toon.TakeDamage(attack.DamageInfo{Attacker: 42, Kind: attack.KindClipOnTie, Damage: 100})
	assert.Equal(t, ToonMaxHealth, toon.Health())
	assert.Equal(t, [][]interface{}{{42}}, env.rec.Fields("flippy", FieldToonDied))
}

func TestSuitDeath(t *testing.T) {
	env := newTestEnv()
	observer := env.toon("flippy", entity.Vector3{X: 50})
	s := env.suit(entity.Vector3{}, 1, 0)
	assert.Equal(t, suit.MaxHealth(1), s.Health())
	assert.T(t, s.Activate())
	assert.T(t, !s.Activate())

	s.TakeDamage(attack.DamageInfo{Attacker: observer.ID, Damage: 100})
	s.TakeDamage(attack.DamageInfo{Attacker: observer.ID, Damage: 100})
	assert.Equal(t, 0, s.Health())
	assert.T(t, !s.IsActivated())
	assert.Equal(t, []common.EntityID{s.ID}, env.arena.hpZero)
	assert.Equal(t, 0, len(env.arena.dead))
	assert.T(t, !s.Activate(), "dead suits stay down")

	env.s.Advance(2 * time.Second)
	assert.Equal(t, []common.EntityID{s.ID}, env.arena.dead)
	assert.T(t, s.IsDestroyed())
	assert.Equal(t, 0, len(env.mgr.Entities(SuitType)))
}

func TestDontIgnoreWakesUp(t *testing.T) {
	env := newTestEnv()
	sleeper := env.suit(entity.Vector3{}, 3, 0)
	light := env.suit(entity.Vector3{X: 5}, 3, spawner.FlagDontIgnore)

	sleeper.TakeDamage(attack.DamageInfo{Damage: 1})
	light.TakeDamage(attack.DamageInfo{Damage: 1})
	assert.T(t, !sleeper.IsActivated())
	assert.T(t, light.IsActivated())

	light.Deactivate()
	assert.T(t, !light.IsActivated())
	assert.T(t, light.EquippedAttack() == nil)
}

func TestSuitThrowsAtNearestToon(t *testing.T) {
	env := newTestEnv()
	near := env.toon("near", entity.Vector3{Y: 10})
	far := env.toon("far", entity.Vector3{Y: -30})
	s := env.suit(entity.Vector3{}, 8, 0)
	assert.T(t, s.Activate())

	env.s.Advance(time.Second)
	assert.Equal(t, near.ID, s.Target())
	assert.T(t, near.Health() < ToonMaxHealth)
	assert.Equal(t, ToonMaxHealth, far.Health())
	assert.Equal(t, 0, len(env.mgr.Entities(ProjectileType)))
	assert.Equal(t, 1, len(env.rec.Fields("near", FieldImpact)))
}

func TestSuitIgnoresToonsOutOfRange(t *testing.T) {
	env := newTestEnv()
	toon := env.toon("flippy", entity.Vector3{X: 100})
	s := env.suit(entity.Vector3{}, 8, 0)
	s.Activate()

	env.s.Advance(time.Second)
	assert.Equal(t, common.EntityID(0), s.Target())
	assert.Equal(t, 0, len(env.mgr.Entities(ProjectileType)))
	assert.Equal(t, ToonMaxHealth, toon.Health())
}

func TestProjectileExpires(t *testing.T) {
	env := newTestEnv()
	env.toon("flippy", entity.Vector3{Z: 50})
	s := env.suit(entity.Vector3{}, 1, 0)
	atk := s.Attack(attack.KindClipOnTie)

	p := env.arena.CreateEntity(ProjectileType, s.GetPosition()).I.(*Projectile)
	p.Launch(s.ID, atk, entity.Vector3{X: 2})
	assert.Equal(t, s.ID, p.Thrower())

	env.s.Advance(time.Second)
	assert.T(t, !p.IsDestroyed())
	assert.T(t, p.GetPosition().X > 25)

	env.s.Advance(time.Second + ProjectileTickInterval)
	assert.T(t, p.IsDestroyed())
	assert.Equal(t, 0, len(env.rec.Fields("flippy", FieldImpact)))
}

func TestToonFiresPistol(t *testing.T) {
	env := newTestEnv()
	toon := env.toon("flippy", entity.Vector3{})
	s := env.suit(entity.Vector3{X: 10}, 8, 0)

	pistol := toon.EquippedAttack()
	assert.Equal(t, attack.KindHL2Pistol, pistol.Kind())
	env.s.Advance(attack.ThinkInterval)
	assert.Equal(t, attack.ActionDraw, pistol.Action())
	toon.FireAttack_Client(1, 0, 0)
	assert.Equal(t, suit.MaxHealth(8), s.Health(), "can not fire while drawing")

	env.s.Advance(1100 * time.Millisecond)
	assert.Equal(t, attack.ActionIdle, pistol.Action())
	toon.FireAttack_Client(1, 0, 0)
	assert.T(t, s.Health() < suit.MaxHealth(8))
	assert.Equal(t, 17, pistol.Clip())

	toon.EquipAttack_Client(int(attack.KindHL2Shotgun))
	assert.Equal(t, attack.KindHL2Shotgun, toon.EquippedAttack().Kind())
	assert.T(t, !pistol.IsEquipped())
}

func TestClientRequestsReachTheArena(t *testing.T) {
	env := newTestEnv()
	toon := env.toon("flippy", entity.Vector3{})

	toon.ReadyForNextFloor_Client()
	toon.LoadedMap_Client()
	toon.EnterSection_Client(2)
	toon.SetPosition_Client(1, 2, 3)

	assert.Equal(t, []common.EntityID{toon.ID}, env.arena.ready)
	assert.Equal(t, []common.EntityID{toon.ID}, env.arena.loaded)
	assert.Equal(t, []int{2}, env.arena.sections)
	assert.Equal(t, entity.Vector3{X: 1, Y: 2, Z: 3}, toon.GetPosition())
}
