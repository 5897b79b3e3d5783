// Package avatar implements the combatants of a battle zone: player toons, cog suits and the projectiles suits throw.
//
// Avatars never decide zone progression themselves. They find the zone they are in through their space and report
// requests and deaths to it through the Arena interface.
package avatar

import (
	"sort"

	"github.com/cogoffice/battlezone/battle/attack"
	"github.com/cogoffice/battlezone/battle/rules"
	"github.com/cogoffice/battlezone/engine/common"
	"github.com/cogoffice/battlezone/engine/consts"
	"github.com/cogoffice/battlezone/engine/entity"
	"github.com/cogoffice/battlezone/engine/gwlog"
)

// Entity type names
const (
	ToonType       = "Toon"
	SuitType       = "Suit"
	ProjectileType = "Projectile"
)

// Replicated fields
const (
	FieldHealth         = "setHealth"
	FieldEquippedAttack = "setEquippedAttack"
)

// Register registers the avatar entity types
func Register() {
	entity.RegisterEntity(ToonType, &Toon{})
	entity.RegisterEntity(SuitType, &Suit{})
	entity.RegisterEntity(ProjectileType, &Projectile{})
}

// Arena is the battle zone seen from its avatars
type Arena interface {
	Resolver() *attack.Resolver
	Registry() *rules.Registry
	Combatants() []attack.Combatant
	FindCombatant(id common.EntityID) (attack.Combatant, bool)

	ReadyForNextFloor(t *Toon)
	LoadedMap(t *Toon)
	EnterSection(t *Toon, section int)

	SuitHPAtZero(s *Suit)
	DeadSuit(s *Suit)
}

// ArenaOf returns the arena the entity is in
func ArenaOf(e *entity.Entity) (Arena, bool) {
	if e.Space == nil {
		return nil, false
	}
	arena, ok := e.Space.I.(Arena)
	return arena, ok
}

type damageHandler interface {
	onDamaged(info attack.DamageInfo)
}

type zeroHealthHandler interface {
	onHealthZero(info attack.DamageInfo)
}

// Avatar is the part shared by toons and suits: health and the attack inventory
type Avatar struct {
	entity.Entity

	Name         string
	faction      attack.Faction
	health       int
	maxHealth    int
	zeroNotified bool
	attacks      map[attack.Kind]*attack.Attack
	equipped     attack.Kind
}

func (a *Avatar) initAvatar(faction attack.Faction, maxHealth int) {
	a.faction = faction
	a.maxHealth = maxHealth
	a.health = maxHealth
	a.attacks = map[attack.Kind]*attack.Attack{}
	a.equipped = attack.KindNone
}

// CombatantID implements attack.Combatant
func (a *Avatar) CombatantID() common.EntityID {
	return a.ID
}

// Faction implements attack.Combatant
func (a *Avatar) Faction() attack.Faction {
	return a.faction
}

// IsDead implements attack.Combatant
func (a *Avatar) IsDead() bool {
	return a.health <= 0
}

// Health returns the health
func (a *Avatar) Health() int {
	return a.health
}

// MaxHealth returns the max health
func (a *Avatar) MaxHealth() int {
	return a.maxHealth
}

// SetMaxHealth sets the max health, lowering the health if needed
func (a *Avatar) SetMaxHealth(maxHealth int) {
	if maxHealth < 1 {
		maxHealth = 1
	}
	a.maxHealth = maxHealth
	a.SetHealth(a.health)
}

// SetHealth sets the health within [0, max health] and replicates it. Healing re-arms the zero health notification.
func (a *Avatar) SetHealth(health int) {
	if health < 0 {
		health = 0
	} else if health > a.maxHealth {
		health = a.maxHealth
	}
	a.health = health
	if health > 0 {
		a.zeroNotified = false
	}
	a.SendUpdate(FieldHealth, a.health, a.maxHealth)
}

// TakeDamage implements attack.Combatant. The zero health notification fires once per death.
func (a *Avatar) TakeDamage(info attack.DamageInfo) {
	if a.IsDead() {
		if consts.DEBUG_ATTACKS {
			gwlog.Debugf("%s is already dead, ignoring %s", a, info)
		}
		return
	}
	a.SetHealth(a.health - info.Damage)
	if h, ok := a.I.(damageHandler); ok {
		h.onDamaged(info)
	}
	if a.health == 0 && !a.zeroNotified {
		a.zeroNotified = true
		if h, ok := a.I.(zeroHealthHandler); ok {
			h.onHealthZero(info)
		}
	}
}

// GiveAttack adds the attack kind to the inventory. Giving a kind twice returns the existing attack.
func (a *Avatar) GiveAttack(kind attack.Kind) (*attack.Attack, bool) {
	if atk, ok := a.attacks[kind]; ok {
		return atk, true
	}
	def, ok := attack.GetDefinition(kind)
	if !ok {
		gwlog.Errorf("%s.GiveAttack: unknown attack kind %d", a, kind)
		return nil, false
	}
	atk := attack.New(def, &a.Entity, attack.ServerExecutor{Owner: &a.Entity})
	a.attacks[kind] = atk
	return atk, true
}

// Attack returns the attack of the kind in the inventory
func (a *Avatar) Attack(kind attack.Kind) *attack.Attack {
	return a.attacks[kind]
}

// Attacks returns the inventory ordered by kind
func (a *Avatar) Attacks() []*attack.Attack {
	list := make([]*attack.Attack, 0, len(a.attacks))
	for _, atk := range a.attacks {
		list = append(list, atk)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Kind() < list[j].Kind() })
	return list
}

// EquippedAttack returns the equipped attack, nil if none
func (a *Avatar) EquippedAttack() *attack.Attack {
	if a.equipped == attack.KindNone {
		return nil
	}
	return a.attacks[a.equipped]
}

// EquipAttack switches to the attack of the kind, which must be in the inventory
func (a *Avatar) EquipAttack(kind attack.Kind) bool {
	atk, ok := a.attacks[kind]
	if !ok {
		gwlog.Warnf("%s.EquipAttack: %d is not in the inventory", a, kind)
		return false
	}
	if a.equipped == kind && atk.IsEquipped() {
		return false
	}
	if cur := a.EquippedAttack(); cur != nil {
		cur.UnEquip()
	}
	a.equipped = kind
	a.SendUpdate(FieldEquippedAttack, int(kind))
	atk.Equip()
	return true
}

// UnEquipAttack puts the equipped attack away
func (a *Avatar) UnEquipAttack() {
	if cur := a.EquippedAttack(); cur != nil {
		cur.UnEquip()
	}
	if a.equipped != attack.KindNone {
		a.equipped = attack.KindNone
		a.SendUpdate(FieldEquippedAttack, int(attack.KindNone))
	}
}

// fireAttack fires the equipped attack along dir. Hitscan attacks resolve at once, projectile attacks launch a
// projectile that resolves when it hits something.
func (a *Avatar) fireAttack(dir entity.Vector3) bool {
	atk := a.EquippedAttack()
	if atk == nil || dir.Length() == 0 {
		return false
	}
	arena, ok := ArenaOf(&a.Entity)
	if !ok {
		return false
	}
	if !atk.PrimaryFirePress() {
		if consts.DEBUG_ATTACKS {
			gwlog.Debugf("%s can not fire %s", a, atk)
		}
		return false
	}

	self := a.I.(attack.Combatant)
	def := atk.Definition()
	origin := a.GetPosition()
	if def.Style == attack.StyleProjectile {
		pe := a.Space.CreateEntity(ProjectileType, origin)
		pe.I.(*Projectile).Launch(a.ID, atk, dir)
		return true
	}
	arena.Resolver().TraceAndDamage(self, atk, origin, dir, def.Range, def.Pellets, true)
	return true
}

// OnDestroy releases the attacks
func (a *Avatar) OnDestroy() {
	a.UnEquipAttack()
}
