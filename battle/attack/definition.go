package attack

import (
	"fmt"
	"time"
)

// Kind identifies an attack type
type Kind int

// Attack kinds
const (
	KindNone Kind = iota
	KindHL2Pistol
	KindHL2Shotgun
	KindClipOnTie
)

// Action is the state of an attack's state machine
type Action int

// Actions shared by all attacks. Not every kind uses every action.
const (
	ActionOff    Action = -1
	ActionIdle   Action = 0
	ActionDraw   Action = 1
	ActionFire   Action = 2
	ActionReload Action = 3
)

var actionNames = map[Action]string{
	ActionOff:    "off",
	ActionIdle:   "idle",
	ActionDraw:   "draw",
	ActionFire:   "fire",
	ActionReload: "reload",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("action%d", int(a))
}

// Indefinite is the length of actions that only end by request
const Indefinite time.Duration = -1

// Style is how a fired attack reaches its target
type Style int

const (
	// StyleHitscan resolves instantly along a ray from the attacker
	StyleHitscan Style = iota
	// StyleProjectile launches a projectile that resolves when it hits something
	StyleProjectile
)

// Definition is the data describing one attack kind
type Definition struct {
	Kind  Kind
	Name  string
	Style Style

	// ActionLengths holds the duration of every finite action. Missing actions are indefinite.
	ActionLengths map[Action]time.Duration
	// EquipAction is queued right after equipping, ActionIdle for none
	EquipAction Action

	HasClip      bool
	HasSecondary bool
	MaxClip      int
	MaxAmmo      int
	MaxSecondary int

	BaseDamage  int
	MaxDistance float64
	// Pellets is the number of damage applications per shot
	Pellets      int
	Range        float64
	FriendlyFire bool

	// RefireDelay lets the attack fire again while still in ActionFire, once the fire action is this old. Zero
	// means firing needs ActionIdle.
	RefireDelay time.Duration
	// ProjectileSpeed in units per second, for projectile attacks
	ProjectileSpeed float64

	// NextAction decides the action after completed finishes. Nil always returns to idle.
	NextAction func(a *Attack, completed Action) Action
	// CanReload reports if a reload request is accepted. Nil rejects every reload.
	CanReload func(a *Attack) bool
}

// ActionLength returns the length of the action, Indefinite if it only ends by request
func (d *Definition) ActionLength(action Action) time.Duration {
	if l, ok := d.ActionLengths[action]; ok {
		return l
	}
	return Indefinite
}

func (d *Definition) String() string {
	return fmt.Sprintf("Attack<%s>", d.Name)
}

// Defaults of attacks that do not override them
const (
	DefaultMaxClip      = 10
	DefaultMaxAmmo      = 10
	DefaultMaxSecondary = 1
	DefaultBaseDamage   = 10
	DefaultMaxDistance  = 40.0
)

// reloadingNextAction reloads after firing or drawing with an empty clip, and refills the clip when a reload ends
func reloadingNextAction(a *Attack, completed Action) Action {
	switch completed {
	case ActionFire, ActionDraw:
		if !a.HasClip() && a.HasAmmo() {
			return ActionReload
		}
	case ActionReload:
		// the clip is drawn from the reserve, never more than the reserve holds
		if a.ammo >= a.maxClip {
			a.SetClip(a.maxClip)
		} else {
			a.SetClip(a.ammo)
		}
	}
	return ActionIdle
}

func canReloadClip(a *Attack) bool {
	return a.action == ActionIdle && !a.IsClipFull() && a.ammo > a.clip
}

var definitions = map[Kind]*Definition{
	KindHL2Pistol: {
		Kind:  KindHL2Pistol,
		Name:  "HL2 Pistol",
		Style: StyleHitscan,
		ActionLengths: map[Action]time.Duration{
			ActionDraw:   1000 * time.Millisecond,
			ActionFire:   500 * time.Millisecond,
			ActionReload: 1790 * time.Millisecond,
		},
		EquipAction:  ActionDraw,
		HasClip:      true,
		MaxClip:      18,
		MaxAmmo:      150,
		MaxSecondary: DefaultMaxSecondary,
		BaseDamage:   DefaultBaseDamage,
		MaxDistance:  DefaultMaxDistance,
		Pellets:      1,
		Range:        10000,
		FriendlyFire: true,
		RefireDelay:  100 * time.Millisecond,
		NextAction:   reloadingNextAction,
		CanReload:    canReloadClip,
	},
	KindHL2Shotgun: {
		Kind:  KindHL2Shotgun,
		Name:  "HL2 Shotgun",
		Style: StyleHitscan,
		ActionLengths: map[Action]time.Duration{
			ActionDraw:   700 * time.Millisecond,
			ActionFire:   1000 * time.Millisecond,
			ActionReload: 2500 * time.Millisecond,
		},
		EquipAction:  ActionDraw,
		HasClip:      true,
		MaxClip:      6,
		MaxAmmo:      30,
		MaxSecondary: DefaultMaxSecondary,
		BaseDamage:   4,
		MaxDistance:  25,
		Pellets:      7,
		Range:        10000,
		FriendlyFire: true,
		NextAction:   reloadingNextAction,
		CanReload:    canReloadClip,
	},
	KindClipOnTie: {
		Kind:  KindClipOnTie,
		Name:  "Clip-On Tie",
		Style: StyleProjectile,
		ActionLengths: map[Action]time.Duration{
			ActionFire: 1500 * time.Millisecond,
		},
		EquipAction:     ActionIdle,
		MaxClip:         DefaultMaxClip,
		MaxAmmo:         1000,
		MaxSecondary:    DefaultMaxSecondary,
		BaseDamage:      DefaultBaseDamage,
		MaxDistance:     DefaultMaxDistance,
		Pellets:         1,
		Range:           60,
		ProjectileSpeed: 30,
	},
}

// GetDefinition returns the definition of the kind
func GetDefinition(kind Kind) (*Definition, bool) {
	d, ok := definitions[kind]
	return d, ok
}

// Kinds returns every defined kind in ascending order
func Kinds() []Kind {
	return []Kind{KindHL2Pistol, KindHL2Shotgun, KindClipOnTie}
}
